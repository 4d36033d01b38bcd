package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/voxjournal/voxjournal/internal/client/api"
	"github.com/voxjournal/voxjournal/internal/client/settings"
)

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account on the journal server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		c := api.NewClient(serverURL)
		if err := c.Register(cmd.Context(), args[0], password); err != nil {
			return err
		}
		fmt.Println("Registered. Run 'voxjournal login' to sign in.")
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and save the session locally",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		c := api.NewClient(serverURL)
		pair, err := c.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SaveSession(&settings.Session{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}); err != nil {
			return err
		}
		fmt.Println("Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.ClearSession(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	password := strings.TrimSpace(string(b))
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
