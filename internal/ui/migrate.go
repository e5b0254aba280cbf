package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/migrate"
)

func (a *App) migrateCmd() *cobra.Command {
	var discard bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move local tasks to your account",
		Long: `Upload every local task to the signed-in account in a single request.

Either all tasks are migrated or none are; local tasks are only cleared
after the backend stored them. Use --discard to drop local tasks instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, client, err := a.remoteClient(ctx)
			if err != nil {
				return err
			}
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if discard {
				if err := s.DiscardLocal(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "Local tasks discarded.")
				return nil
			}

			pending, err := s.PendingMigration(ctx)
			if err != nil {
				return err
			}
			if pending == 0 {
				fmt.Fprintln(out, "No local tasks to migrate.")
				return nil
			}

			res := s.Migrate(ctx, client.CurrentUser())
			if errors.Is(res.Err, migrate.ErrNotAuthenticated) {
				return fmt.Errorf("%w: run \"weekplan signin\" first", res.Err)
			}
			if res.Migrated > 0 {
				fmt.Fprintf(out, "Migrated %d task(s) to your account.\n", res.Migrated)
			}
			if res.Parked > 0 {
				fmt.Fprintf(out, "%d task(s) were parked because their slot was full.\n", res.Parked)
			}
			return res.Err
		},
	}

	cmd.Flags().BoolVar(&discard, "discard", false, "Drop local tasks instead of migrating them")

	return cmd
}
