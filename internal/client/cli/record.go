package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxjournal/voxjournal/internal/client/recorder"
	"github.com/voxjournal/voxjournal/internal/client/settings"
	"github.com/voxjournal/voxjournal/internal/language"
)

// resolveLanguage applies the transcription-language precedence shared by
// record and transcribe: explicit flag, then saved preferences, then locale.
func resolveLanguage(explicit string, prefs *settings.Settings) string {
	return language.Resolve(explicit, prefs.DefaultLanguage, prefs.AutoDetectLanguage, os.Getenv("LANG"))
}

var (
	recordTitle    string
	recordLanguage string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a voice note and save it as a journal entry",
	Long: `Starts recording from the default microphone. Press Enter to stop and
save, or type 'discard' and press Enter to throw the recording away.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		client, err := newAPIClient(store)
		if err != nil {
			return err
		}

		prefs, err := store.Load()
		if err != nil {
			return err
		}

		session := recorder.NewSession(recorder.NewArecordSource(prefs.HighQualityAudio), recorder.WallClock())
		defer session.Close()

		if err := session.Start(cmd.Context()); err != nil {
			return fmt.Errorf("%s", recorder.UserMessage(err))
		}
		fmt.Println("Recording... press Enter to stop, or type 'discard' + Enter to abandon.")

		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(line) == "discard" {
			fmt.Println("Deleting...")
			return session.Discard()
		}

		if err := session.Stop(); err != nil {
			return fmt.Errorf("%s", recorder.UserMessage(err))
		}
		fmt.Printf("Recorded %d seconds.\n", session.DurationSec())

		if err := session.BeginUpload(); err != nil {
			return err
		}

		lang := resolveLanguage(recordLanguage, prefs)

		entry, err := client.SaveEntry(cmd.Context(), session.Blob(), recordTitle, session.DurationSec(), lang)
		if err != nil {
			meta := pendingMeta{Title: recordTitle, DurationSec: session.DurationSec(), Language: lang}
			if perr := savePending(session.Blob(), meta); perr != nil {
				return fmt.Errorf("save failed (%v) and the recording could not be kept locally: %v", err, perr)
			}
			return fmt.Errorf("save failed (%v); the recording is kept locally, run 'voxjournal retry' to upload it without re-recording", err)
		}

		fmt.Printf("Saved entry %s (%q, %d sec).\n", entry.ID, entry.Title, entry.DurationSec)
		if entry.Transcription != "" {
			fmt.Println("Transcript:")
			fmt.Println(entry.Transcription)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordTitle, "title", "", "entry title (a date-based one is generated when empty)")
	recordCmd.Flags().StringVar(&recordLanguage, "language", "", "explicit transcription language code (e.g. eng, spa)")
}
