package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/javiermolinar/weekplan/internal/auth"
)

func (a *App) signUpCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account on the backend and sign in",
		Example: `  weekplan signup --email me@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.authenticate(cmd, email, func(ctx context.Context, c auth.Provider, password string) (*auth.User, error) {
				return c.SignUp(ctx, email, password)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (a *App) signInCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to the backend",
		Long: `Sign in to the backend. Tasks are then read from and written to your
account. Local tasks stay on this machine until you run "weekplan migrate".`,
		Example: `  weekplan signin --email me@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.authenticate(cmd, email, func(ctx context.Context, c auth.Provider, password string) (*auth.User, error) {
				return c.SignIn(ctx, email, password)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

type authFunc func(ctx context.Context, c auth.Provider, password string) (*auth.User, error)

func (a *App) authenticate(cmd *cobra.Command, email string, fn authFunc) error {
	ctx := cmd.Context()
	s, client, err := a.remoteClient(ctx)
	if err != nil {
		return err
	}

	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	u, err := fn(ctx, client, password)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s\n", u.Email)

	n, err := s.PendingMigration(ctx)
	if err != nil {
		a.log().Warn("counting local tasks failed", zap.Error(err))
		return nil
	}
	if n > 0 {
		fmt.Fprintln(out, formatWarn(fmt.Sprintf(
			"You have %d local task(s). Run \"weekplan migrate\" to move them to your account, or \"weekplan migrate --discard\" to drop them.", n)))
	}
	return nil
}

func (a *App) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and switch back to local tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := a.remoteClient(cmd.Context())
			if err != nil {
				return err
			}
			if client.CurrentUser() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			if err := client.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("signing out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (a *App) whoamiCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and storage mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if !a.config.HasRemote() {
				fmt.Fprintln(out, "No backend configured; tasks are stored locally.")
				return nil
			}
			_, client, err := a.remoteClient(cmd.Context())
			if err != nil {
				return err
			}

			u := client.CurrentUser()
			if check && u != nil {
				if u, err = client.Refresh(cmd.Context()); err != nil {
					return fmt.Errorf("checking session: %w", err)
				}
			}
			if u == nil {
				fmt.Fprintln(out, "Not signed in; tasks are stored locally.")
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s %s\n", u.Email, formatMuted("("+u.ID+")"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Verify the session with the backend")

	return cmd
}

// readPassword reads a password without echo from a terminal, or one line
// from any other reader.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
