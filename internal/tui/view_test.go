package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/javiermolinar/weekplan/internal/task"
)

func trueColor(t *testing.T) {
	t.Helper()
	prevProfile := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.TrueColor)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(prevProfile)
	})
}

func sized(t *testing.T, m Model, width, height int) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.(Model)
}

func TestView_ShowsGridAndParking(t *testing.T) {
	m, _ := newTestModel(t, monday("Standup notes"), parked("Someday idea"))
	m = sized(t, m, 160, 40)

	out := ansi.Strip(m.View())
	for _, want := range []string{"weekplan", "local", "Monday", "Sunday", "AM 1", "PM 4", "Standup notes", "Parking (1)", "Someday idea"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_ShortDayNamesWhenNarrow(t *testing.T) {
	m, _ := newTestModel(t)
	m = sized(t, m, 70, 30)

	if m.colWidth >= 10 {
		t.Fatalf("got col width %d, want a narrow layout", m.colWidth)
	}
	out := ansi.Strip(m.View())
	if !strings.Contains(out, "Mon") || strings.Contains(out, "Monday") {
		t.Errorf("expected short day names in %q", out)
	}
}

func TestView_LinesFitWidth(t *testing.T) {
	m, _ := newTestModel(t, monday(strings.Repeat("long title ", 4)))
	m = sized(t, m, 120, 40)

	for i, line := range strings.Split(m.View(), "\n") {
		if w := lipgloss.Width(line); w > 120 {
			t.Errorf("line %d is %d cells wide, want at most 120", i, w)
		}
	}
}

func TestRenderCell_TruncatesToColumn(t *testing.T) {
	m, _ := newTestModel(t)
	m.colWidth = 12
	long := &task.Task{ID: 1, Title: "A title much longer than the column"}

	cell := m.renderCell(long, 0, false, false)
	if w := lipgloss.Width(cell); w != 12 {
		t.Errorf("got width %d, want 12", w)
	}
	if !strings.Contains(ansi.Strip(cell), "…") {
		t.Errorf("expected an ellipsis in %q", ansi.Strip(cell))
	}
}

func TestRenderCell_CompletedMarker(t *testing.T) {
	m, _ := newTestModel(t)
	done := &task.Task{ID: 1, Title: "Done", Completed: true}
	if got := ansi.Strip(m.renderCell(done, 0, false, false)); !strings.Contains(got, "✓ Done") {
		t.Errorf("got %q, want a check mark", got)
	}
}

func TestCellStyle(t *testing.T) {
	trueColor(t)
	m, _ := newTestModel(t)
	s := m.styles
	pending := &task.Task{ID: 1, Title: "Pending"}
	done := &task.Task{ID: 2, Title: "Done", Completed: true}

	tests := []struct {
		name     string
		t        *task.Task
		position int
		selected bool
		parked   bool
		want     lipgloss.Style
	}{
		{"empty", nil, 0, false, false, s.EmptyCellStyle},
		{"task", pending, 0, false, false, s.TaskStyle},
		{"task alternate", pending, 1, false, false, s.TaskAltStyle},
		{"done", done, 1, false, false, s.DoneStyle},
		{"parked", pending, 0, false, true, s.ParkedStyle},
		{"parked alternate", pending, 3, false, true, s.ParkedAltStyle},
		{"cursor", pending, 0, true, false, s.CursorStyle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.cellStyle(tt.t, tt.position, tt.selected, tt.parked).Render("x")
			if want := tt.want.Render("x"); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestView_MoveModeHighlightsDropTarget(t *testing.T) {
	trueColor(t)
	m, _ := newTestModel(t, monday("Grabbed"))
	m = press(t, m, "m", "l")

	target := m.renderCell(nil, 0, true, false)
	if !strings.Contains(ansi.Strip(target), "▸ Grabbed") {
		t.Errorf("drop target shows %q", ansi.Strip(target))
	}
	if want := m.styles.DropTargetStyle.Width(m.colWidth).Render(" ▸ Grabbed"); target != want {
		t.Errorf("got %q, want drop target style", target)
	}

	origin, _ := m.board.At(task.Monday, task.Morning, 0)
	if got := m.cellStyle(origin, 0, false, false).Render("x"); got != m.styles.MovingStyle.Render("x") {
		t.Error("the grabbed task should render with the moving style")
	}

	out := ansi.Strip(m.View())
	if !strings.Contains(out, "enter drop") {
		t.Error("move mode help missing")
	}
}

func TestView_ParkingScrollsToCursor(t *testing.T) {
	var seed []seedTask
	for i := range 20 {
		seed = append(seed, parked(strings.Repeat(string(rune('a'+i)), 3)))
	}
	m, _ := newTestModel(t, seed...)
	m = sized(t, m, 100, 40)
	m = press(t, m, "G")
	m = press(t, m, strings.Split(strings.Repeat("l", 19), "")...)

	lines := m.renderParking()
	row := ansi.Strip(lines[1])
	if !strings.Contains(row, "ttt") {
		t.Errorf("last parked task should be visible, got %q", row)
	}
	if strings.Contains(row, "aaa") {
		t.Errorf("first parked task should scroll out, got %q", row)
	}
}

func TestView_ParkingOverflowCount(t *testing.T) {
	var seed []seedTask
	for i := range 15 {
		seed = append(seed, parked(strings.Repeat(string(rune('a'+i)), 3)))
	}
	m, _ := newTestModel(t, seed...)
	m = sized(t, m, 100, 40)

	row := ansi.Strip(m.renderParking()[1])
	if !strings.Contains(row, "+") {
		t.Errorf("expected an overflow count, got %q", row)
	}
}

func TestView_TaskFormModal(t *testing.T) {
	m, _ := newTestModel(t)
	m = sized(t, m, 140, 40)
	m = press(t, m, "a")

	out := ansi.Strip(m.View())
	if !strings.Contains(out, "New task · Monday morning") {
		t.Errorf("modal heading missing from view")
	}
	if !strings.Contains(out, "enter save") {
		t.Errorf("modal hint missing from view")
	}
	if got := len(strings.Split(m.View(), "\n")); got != 40 {
		t.Errorf("overlay should fill the terminal, got %d lines", got)
	}

	m.formTitle.SetValue("ab")
	m = press(t, m, "enter")
	if out := ansi.Strip(m.View()); !strings.Contains(out, "title must be at least 3 characters") {
		t.Error("inline validation error missing from modal")
	}
}

func TestView_MigrateModal(t *testing.T) {
	m, _ := newTestModel(t)
	m.pendingMigration = 4
	m = press(t, m, "M")

	out := ansi.Strip(m.View())
	for _, want := range []string{"Migrate local tasks", "You have 4 task(s)", "m migrate · d discard"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !strings.Contains(out, "4 local task(s) to migrate (M)") {
		t.Error("header should advertise the pending migration")
	}
}

func TestRenderStatus(t *testing.T) {
	m, s := newTestModel(t)
	if _, err := s.Add(context.Background(), task.Input{Title: "With note", Note: "remember this"}, task.WeekBucket(task.Monday, task.Morning)); err != nil {
		t.Fatalf("add: %v", err)
	}
	m.refresh()

	if got := ansi.Strip(m.renderStatus()); got != "remember this" {
		t.Errorf("got %q, want the note under the cursor", got)
	}

	m = press(t, m, "l")
	if got := ansi.Strip(m.renderStatus()); got != "tuesday-morning-0" {
		t.Errorf("got %q, want the slot id", got)
	}

	m.statusMsg = "Saved"
	if got := ansi.Strip(m.renderStatus()); got != "Saved" {
		t.Errorf("got %q, want the status message", got)
	}
}

func TestBucketLabel(t *testing.T) {
	tests := []struct {
		bucket task.Bucket
		want   string
	}{
		{task.WeekBucket(task.Monday, task.Morning), "Monday morning"},
		{task.WeekBucket(task.Sunday, task.Afternoon), "Sunday afternoon"},
		{task.ParkingBucket(), "Parking"},
	}
	for _, tt := range tests {
		if got := bucketLabel(tt.bucket); got != tt.want {
			t.Errorf("bucketLabel(%v) = %q, want %q", tt.bucket, got, tt.want)
		}
	}
}
