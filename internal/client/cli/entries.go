package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxjournal/voxjournal/internal/client/playback"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
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

		entries, err := client.ListEntries(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries yet. Record one with 'voxjournal record'.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  %3ds  %s\n",
				e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.DurationSec, e.Title)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one entry with its transcript",
	Args:  cobra.ExactArgs(1),
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

		e, err := client.GetEntry(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n%s, %d seconds\n\n%s\n", e.Title,
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.DurationSec, e.Transcription)
		return nil
	},
}

var playCmd = &cobra.Command{
	Use:   "play <id>",
	Short: "Get a fresh playback URL for an entry",
	Args:  cobra.ExactArgs(1),
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

		info, err := client.Playback(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		// The stored duration is authoritative; the media file may report an
		// unusable one.
		r := playback.NewReconciler(info.DurationSec, playback.DefaultGracePeriod)
		r.Elapse()
		displayed, _ := r.Displayed()

		fmt.Printf("Duration: %d seconds\n", displayed)
		fmt.Printf("URL (valid %s, do not reuse after expiry):\n%s\n",
			time.Duration(info.ExpiresInSeconds)*time.Second, info.URL)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry and its stored audio",
	Args:  cobra.ExactArgs(1),
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

		if err := client.DeleteEntry(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var transcribeLanguage string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <id>",
	Short: "Regenerate an entry's transcript (overwrites the current one)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("This overwrites the existing transcript and cannot be undone. Continue? [y/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}

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

		e, err := client.RegenerateTranscription(cmd.Context(), args[0], resolveLanguage(transcribeLanguage, prefs))
		if err != nil {
			return err
		}
		fmt.Println("New transcript:")
		fmt.Println(e.Transcription)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVar(&transcribeLanguage, "language", "", "explicit transcription language code")
}
