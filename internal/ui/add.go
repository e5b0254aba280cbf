package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/task"
)

func (a *App) addCmd() *cobra.Command {
	var (
		note string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new task",
		Long: `Add a task to the end of a slot or to the parking area.

A morning or afternoon holds at most four tasks. Titles are 3 to 50
characters and notes at most 200.`,
		Example: `  weekplan add "Write the report" --to monday-morning
  weekplan add "Call the bank" --note "ask about fees"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			target, err := parseBucket(s.Grid(), to)
			if err != nil {
				return err
			}

			t, err := s.Add(cmd.Context(), task.Input{Title: args[0], Note: note}, target)
			if err != nil {
				return fmt.Errorf("adding task: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created task #%d: %s [%s]\n", t.ID, t.Title, task.LocationID(t.Location))
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Optional note")
	cmd.Flags().StringVar(&to, "to", parkingName, "Target: parking or <day>-<period>, e.g. monday-morning")

	return cmd
}
