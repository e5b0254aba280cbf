package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/weekplan/internal/task"
)

// parkingName is how the parking area is named on the command line.
const parkingName = "parking"

// parseBucket parses "parking" or "<day>-<period>" (e.g. "monday-morning")
// against the configured days.
func parseBucket(grid task.Grid, s string) (task.Bucket, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == parkingName {
		return task.ParkingBucket(), nil
	}
	dayName, periodName, ok := strings.Cut(s, "-")
	if !ok {
		return task.Bucket{}, fmt.Errorf("invalid target %q: use parking or <day>-<period>, e.g. monday-morning", s)
	}
	day, err := task.ParseDay(dayName)
	if err != nil {
		return task.Bucket{}, err
	}
	period, err := task.ParsePeriod(periodName)
	if err != nil {
		return task.Bucket{}, err
	}
	b := task.WeekBucket(day, period)
	if err := grid.ValidateBucket(b); err != nil {
		return task.Bucket{}, err
	}
	return b, nil
}

// parseDestination accepts a slot id ("monday-morning-2", "parking-0") or a
// bucket name, which means the end of that bucket.
func parseDestination(grid task.Grid, s string) (task.Location, error) {
	if loc, err := grid.ParseSlotID(strings.ToLower(strings.TrimSpace(s))); err == nil {
		return loc, nil
	}
	b, err := parseBucket(grid, s)
	if err != nil {
		return nil, err
	}
	// Move clamps the position to the end of the bucket.
	if b.Parking {
		return task.Parking{Position: 1 << 20}, nil
	}
	return b.At(task.MaxPositionsPerSlot - 1), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func statusSymbol(completed bool) string {
	if completed {
		return formatDone("✓")
	}
	return "○"
}

// bucketLabel returns a display name like "Monday morning" or "Parking".
func bucketLabel(b task.Bucket) string {
	if b.Parking {
		return "Parking"
	}
	return b.Day.Title() + " " + string(b.Period)
}

// printTaskRow prints one task line, truncated to width.
func printTaskRow(w io.Writer, t *task.Task, width int) {
	slot := task.LocationID(t.Location)
	var b strings.Builder
	fmt.Fprintf(&b, "  %s #%d %s %s", statusSymbol(t.Completed), t.ID, formatSlot(fmt.Sprintf("%-20s", slot)), t.Title)
	if t.Note != "" {
		b.WriteString(formatMuted(" · " + t.Note))
	}
	line := b.String()
	if width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	fmt.Fprintln(w, line)
}
