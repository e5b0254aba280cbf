package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Toggle a task between completed and pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			t, err := s.ToggleComplete(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("updating task: %w", err)
			}

			state := "pending"
			if t.Completed {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d is %s: %s\n", t.ID, state, t.Title)
			return nil
		},
	}
}
