package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openjudge/judgectl/auth"
)

var (
	loginIdentifier string
	loginPassword   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the admin API",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		identifier := loginIdentifier
		if identifier == "" {
			var err error
			identifier, err = readLine("username or email: ")
			if err != nil {
				return err
			}
		}
		password := loginPassword
		if password == "" {
			var err error
			password, err = readLine("password: ")
			if err != nil {
				return err
			}
		}
		if identifier == "" || password == "" {
			return errors.New("identifier and password are required")
		}

		profile, err := a.auth.Login(cmd.Context(), auth.Credentials{
			Identifier: identifier,
			Password:   password,
		})
		if err != nil {
			return err
		}
		if profile != nil {
			fmt.Printf("logged in as %s\n", profile.Username)
		} else {
			fmt.Println("logged in")
		}
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the stored session",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.auth.Logout(cmd.Context()); err != nil {
			// Local state is already cleared; the remote failure is advisory.
			fmt.Fprintf(os.Stderr, "server logout failed: %v\n", err)
		}
		fmt.Println("logged out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated profile",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if !a.store.IsAuthenticated() {
			return errors.New("not logged in")
		}
		profile, err := a.auth.Me(cmd.Context())
		if err != nil {
			return err
		}
		printJSON(profile)
		return nil
	}),
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new session",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if _, err := a.auth.Refresh(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("session refreshed")
		return nil
	}),
}

func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginIdentifier, "user", "u", "", "username or email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, refreshCmd)
}
