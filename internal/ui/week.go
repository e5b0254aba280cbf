package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekplan/internal/task"
)

const (
	weekLabelWidth   = 6
	weekMinCellWidth = 8
)

func (a *App) weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show the week grid",
		Long: `Show every slot of the week as a grid.

Rows are the four positions of each morning and afternoon; columns are
the configured days. Parked tasks are listed below the grid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			renderWeek(cmd.OutOrStdout(), s.Snapshot(), termWidth())
			return nil
		},
	}
}

// renderWeek prints the grid of board, fitting columns into width.
func renderWeek(w io.Writer, board *task.Board, width int) {
	days := board.Grid().Days()
	cellW := (width - weekLabelWidth) / len(days)
	if cellW < weekMinCellWidth {
		cellW = weekMinCellWidth
	}

	var header strings.Builder
	header.WriteString(padCell("", weekLabelWidth))
	for _, d := range days {
		header.WriteString(padCell(d.Title(), cellW))
	}
	fmt.Fprintln(w, formatHeader(strings.TrimRight(header.String(), " ")))

	for _, p := range task.Periods {
		label := "AM"
		if p == task.Afternoon {
			label = "PM"
		}
		for pos := 0; pos < task.MaxPositionsPerSlot; pos++ {
			var row strings.Builder
			if pos == 0 {
				row.WriteString(padCell(formatMuted(label), weekLabelWidth))
			} else {
				row.WriteString(padCell("", weekLabelWidth))
			}
			for _, d := range days {
				t, ok := board.At(d, p, pos)
				row.WriteString(padCell(cellText(t, ok), cellW))
			}
			fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
		}
		fmt.Fprintln(w)
	}

	parked := board.Parked()
	fmt.Fprintln(w, formatParked(formatHeader(fmt.Sprintf("Parking (%d)", len(parked)))))
	if len(parked) == 0 {
		fmt.Fprintln(w, formatMuted("  empty"))
		return
	}
	for _, t := range parked {
		printTaskRow(w, t, width)
	}
}

func cellText(t *task.Task, ok bool) string {
	if !ok {
		return formatMuted("·")
	}
	if t.Completed {
		return formatDone("✓ " + t.Title)
	}
	return t.Title
}

// padCell truncates s to width-1 cells and pads it to width, keeping a
// single space between columns.
func padCell(s string, width int) string {
	s = ansi.Truncate(s, width-1, "…")
	if gap := width - ansi.StringWidth(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}
