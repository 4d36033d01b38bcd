// Package cli implements the voxjournal command-line client.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voxjournal/voxjournal/internal/client/api"
	"github.com/voxjournal/voxjournal/internal/client/settings"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "voxjournal",
	Short: "A voice journal",
	Long: `Voxjournal records voice notes from the microphone, uploads them to the
journal server for transcription, and plays them back.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "journal server base URL")
}

// dataDir is where the client keeps its local state.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".voxjournal")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

func openStore() (*settings.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return settings.Open(filepath.Join(dir, "client.bolt"))
}

// newAPIClient builds a client carrying the saved session token, if any.
func newAPIClient(store *settings.Store) (*api.Client, error) {
	c := api.NewClient(serverURL)
	sess, err := store.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("not logged in, run 'voxjournal login' first")
	}
	c.SetAccessToken(sess.AccessToken)
	return c, nil
}
