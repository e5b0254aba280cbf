package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/task"
)

func (a *App) listCmd() *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "list [target]",
		Short: "List tasks by slot",
		Long: `List tasks grouped by slot, in week order, followed by the parking area.

If a target is given, only that slot is listed.`,
		Example: `  weekplan list
  weekplan list tuesday-afternoon
  weekplan list parking --pending`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			board := s.Snapshot()

			buckets := board.Grid().Buckets()
			if len(args) == 1 {
				b, err := parseBucket(board.Grid(), args[0])
				if err != nil {
					return err
				}
				buckets = []task.Bucket{b}
			}

			out := cmd.OutOrStdout()
			width := termWidth()
			printed := 0
			for _, b := range buckets {
				tasks := board.Bucket(b)
				if pending {
					tasks = incomplete(tasks)
				}
				if len(tasks) == 0 {
					continue
				}
				if printed > 0 {
					fmt.Fprintln(out)
				}
				header := fmt.Sprintf("=== %s ===", bucketLabel(b))
				if b.Parking {
					header = formatParked(header)
				}
				fmt.Fprintln(out, formatHeader(header))
				for _, t := range tasks {
					printTaskRow(out, t, width)
				}
				printed++
			}

			if printed == 0 {
				fmt.Fprintln(out, "No tasks found.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "Only show tasks that are not completed")

	return cmd
}

func incomplete(tasks []*task.Task) []*task.Task {
	out := tasks[:0:0]
	for _, t := range tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}
