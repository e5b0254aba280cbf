package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/task"
)

func (a *App) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move [id] [destination]",
		Short: "Move a task to another slot or to parking",
		Long: `Move a task to a slot id or to the end of a slot.

Destinations are slot ids such as monday-morning-0 or parking-2, or a
slot name such as friday-afternoon or parking. A full slot rejects the
move and nothing changes.`,
		Example: `  weekplan move 1712 tuesday-morning-0
  weekplan move 1712 parking`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			dest, err := parseDestination(s.Grid(), args[1])
			if err != nil {
				return err
			}

			t, err := s.Move(cmd.Context(), id, dest)
			if err != nil {
				return fmt.Errorf("moving task: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Moved task #%d to %s\n", t.ID, task.LocationID(t.Location))
			return nil
		},
	}
}
