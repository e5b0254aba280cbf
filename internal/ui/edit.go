package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/task"
)

func (a *App) editCmd() *cobra.Command {
	var (
		title string
		note  string
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a task's title or note",
		Example: `  weekplan edit 1712 --title "Write the final report"
  weekplan edit 1712 --note ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var p task.Patch
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("note") {
				p.Note = &note
			}
			if p.IsEmpty() {
				return errors.New("nothing to change: pass --title or --note")
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.Update(cmd.Context(), id, p)
			if err != nil {
				return fmt.Errorf("editing task: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d: %s\n", t.ID, t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&note, "note", "", "New note (empty clears it)")

	return cmd
}
