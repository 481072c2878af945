package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

// readSecret prompts without echo on a terminal and reads a plain line
// otherwise, so passwords can be piped in
func (a *app) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	fd := int(a.in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(a.out)
		return string(b), err
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Long: `Sign in with email and password. The password is prompted for when
neither --password nor CHARTAGO_PASSWORD is set.

Examples:
  chartago login --email demo@chartago.dev
  CHARTAGO_PASSWORD=... chartago login --email demo@chartago.dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = a.cfg.Email
			}
			if password == "" {
				password = a.cfg.Password
			}
			if password == "" && email != "" {
				var err error
				if password, err = a.readSecret("Password: "); err != nil {
					return err
				}
			}

			user, err := a.client.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printSuccess(a.out, "Signed in as %s", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var params chartago.SignupParams

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Example: `  chartago signup --username ana --email ana@example.com --phone 5550100 \
    --password secret --confirm-password secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Auth.Signup(cmd.Context(), &params)
			if err != nil {
				return err
			}
			printSuccess(a.out, "Welcome, %s", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Username, "username", "", "user name")
	cmd.Flags().StringVar(&params.Email, "email", "", "email")
	cmd.Flags().StringVar(&params.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&params.Password, "password", "", "password")
	cmd.Flags().StringVar(&params.ConfirmPassword, "confirm-password", "", "password again")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Auth.Logout(cmd.Context()); err != nil {
				// The local session is gone either way.
				a.logger.Sugar().Warnw("Server logout failed", "error", err)
			}
			printSuccess(a.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user as the server sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			user, err := a.client.Users.Authenticated(cmd.Context())
			if err != nil {
				return err
			}
			printUser(a.out, user)
			return nil
		},
	}
}
