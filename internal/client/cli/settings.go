package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setLanguage    string
	setAutoDetect  string
	setNotify      string
	setHighQuality string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change local preferences",
	Long: `Without flags, prints the current preferences. Flags change a value and
save explicitly. Preferences live on this machine only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		prefs, err := store.Load()
		if err != nil {
			return err
		}

		changed := false
		if setLanguage != "" {
			prefs.DefaultLanguage = setLanguage
			changed = true
		}
		if setAutoDetect != "" {
			prefs.AutoDetectLanguage, err = parseBoolFlag("auto-detect", setAutoDetect)
			if err != nil {
				return err
			}
			changed = true
		}
		if setNotify != "" {
			prefs.Notifications, err = parseBoolFlag("notifications", setNotify)
			if err != nil {
				return err
			}
			changed = true
		}
		if setHighQuality != "" {
			prefs.HighQualityAudio, err = parseBoolFlag("high-quality", setHighQuality)
			if err != nil {
				return err
			}
			changed = true
		}

		if changed {
			if err := store.Save(prefs); err != nil {
				return err
			}
			fmt.Println("Saved.")
		}

		fmt.Printf("default language:     %s\n", prefs.DefaultLanguage)
		fmt.Printf("auto-detect language: %t\n", prefs.AutoDetectLanguage)
		fmt.Printf("notifications:        %t\n", prefs.Notifications)
		fmt.Printf("high-quality audio:   %t\n", prefs.HighQualityAudio)
		return nil
	},
}

func parseBoolFlag(name, value string) (bool, error) {
	switch value {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("--%s must be on or off, got %q", name, value)
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.Flags().StringVar(&setLanguage, "language", "", "default transcription language code")
	settingsCmd.Flags().StringVar(&setAutoDetect, "auto-detect", "", "derive language from the system locale: on|off")
	settingsCmd.Flags().StringVar(&setNotify, "notifications", "", "notifications: on|off")
	settingsCmd.Flags().StringVar(&setHighQuality, "high-quality", "", "high-quality audio capture: on|off")
}
