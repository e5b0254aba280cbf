package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/task"
)

func (a *App) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Long: `Delete a task. Later tasks in the same slot move up to close the gap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			t, ok := s.Get(id)
			if !ok {
				return &task.NotFoundError{ID: id}
			}
			if err := s.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting task: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d: %s\n", t.ID, t.Title)
			return nil
		},
	}
}
