package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mitaict-site/internal/client/session"
)

func (a *App) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with username and password",
		Long: `Sign in as a site admin. The token is kept in the configured store.

The password is read from --password, then MITACTL_PASSWORD, then one line
of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = a.v.GetString("password")
			}
			if password == "" {
				line, err := a.readLine("Password: ")
				if err != nil {
					return err
				}
				password = line
			}

			if _, err := a.sessions.Login(cmd.Context(), session.Credentials{Username: username, Password: password}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "admin", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
	_ = a.v.BindEnv("password", envPrefix+"_PASSWORD")

	cmd.AddCommand(a.loginGoogleCmd())
	return cmd
}

func (a *App) loginGoogleCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "google",
		Short: "Sign in with a Google authorization code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.sessions.LoginFederated(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged in with Google")
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code from the Google consent screen")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut() {
				return a.printJSON(admin)
			}
			method := a.sessions.Current().Method
			fmt.Fprintf(a.out, "%s <%s> (signed in with %s)\n", admin.Username, admin.Email, method)
			return nil
		},
	}
}

func (a *App) passwordCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the admin password",
		Long: `Change the admin password. Every session of the admin ends, including
this one, so log in again afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.ChangePassword(cmd.Context(), current, next); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password updated. Log in again with the new password.")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password (at least 8 characters)")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
