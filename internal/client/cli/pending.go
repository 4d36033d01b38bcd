package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// A finalized recording whose save failed is kept on disk, blob plus the
// wall-clock duration measured at record time, so the user can retry the
// upload without re-recording.
const (
	pendingAudioFile = "pending.wav"
	pendingMetaFile  = "pending.json"
)

type pendingMeta struct {
	Title       string `json:"title"`
	DurationSec int    `json:"duration_sec"`
	Language    string `json:"language"`
}

func savePending(blob []byte, meta pendingMeta) error {
	dir, err := dataDir()
	if err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, pendingAudioFile), blob, 0600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, pendingMetaFile), data, 0600)
}

// loadPending returns (nil, nil, nil) when nothing is waiting.
func loadPending() ([]byte, *pendingMeta, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, nil, err
	}
	blob, err := os.ReadFile(filepath.Join(dir, pendingAudioFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, pendingMetaFile))
	if err != nil {
		return nil, nil, err
	}
	var meta pendingMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, nil, err
	}
	return blob, &meta, nil
}

func clearPending() error {
	dir, err := dataDir()
	if err != nil {
		return err
	}
	for _, name := range []string{pendingAudioFile, pendingMetaFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-upload the last recording whose save failed",
	RunE: func(cmd *cobra.Command, args []string) error {
		blob, meta, err := loadPending()
		if err != nil {
			return err
		}
		if meta == nil {
			fmt.Println("Nothing to retry.")
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

		entry, err := client.SaveEntry(cmd.Context(), blob, meta.Title, meta.DurationSec, meta.Language)
		if err != nil {
			return fmt.Errorf("save failed again (%v); the recording is still kept for retry", err)
		}
		if err := clearPending(); err != nil {
			return err
		}

		fmt.Printf("Saved entry %s (%q, %d sec).\n", entry.ID, entry.Title, entry.DurationSec)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}
