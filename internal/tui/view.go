package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/weekplan/internal/task"
)

// Terminal size assumed until the first WindowSizeMsg arrives.
const (
	fallbackWidth  = 120
	fallbackHeight = 32
	maxColWidth    = 28
)

// View renders the board and, on top of it, the active modal.
func (m Model) View() string {
	width, height := m.size()
	base := m.renderApp(width)
	if m.mode != ModeModal || m.modalType == ModalNone {
		return base
	}
	return placeOverlay(base, m.renderModal(), width, height)
}

func (m Model) size() (int, int) {
	width, height := m.width, m.height
	if width <= 0 {
		width = fallbackWidth
	}
	if height <= 0 {
		height = fallbackHeight
	}
	return width, height
}

// innerWidth is the width left inside the app padding.
func (m Model) innerWidth() int {
	width, _ := m.size()
	return width - m.styles.AppStyle.GetHorizontalFrameSize()
}

func (m Model) calculateColWidth() int {
	if len(m.days) == 0 {
		return defaultColWidth
	}
	w := (m.innerWidth() - rowLabelWidth) / len(m.days)
	return min(max(w, minColWidth), maxColWidth)
}

func (m Model) renderApp(width int) string {
	lines := []string{m.renderHeader(), ""}
	lines = append(lines, m.renderGrid()...)
	lines = append(lines, "")
	lines = append(lines, m.renderParking()...)
	lines = append(lines, "", m.renderStatus(), m.renderHelp())
	return m.styles.AppStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderHeader() string {
	parts := []string{m.session.Mode().String()}
	if u := m.currentUser(); u != nil {
		parts = append(parts, u.Email)
	} else if m.auth != nil {
		parts = append(parts, "not signed in")
	}
	if m.pendingMigration > 0 {
		parts = append(parts, fmt.Sprintf("%d local task(s) to migrate (M)", m.pendingMigration))
	}
	return m.styles.TitleStyle.Render("weekplan") + m.styles.ModeStyle.Render("  "+strings.Join(parts, " · "))
}

func (m Model) renderGrid() []string {
	var b strings.Builder
	b.WriteString(m.styles.RowLabelStyle.Render(""))
	for _, d := range m.days {
		name := d.Title()
		if m.colWidth < 10 {
			name = d.Short()
		}
		b.WriteString(m.styles.DayHeaderStyle.Width(m.colWidth).Render(name))
	}
	lines := []string{b.String()}

	for row := range parkingRow {
		if row > 0 && row%task.MaxPositionsPerSlot == 0 {
			sep := strings.Repeat("─", rowLabelWidth+m.colWidth*len(m.days))
			lines = append(lines, m.styles.SeparatorStyle.Render(sep))
		}
		lines = append(lines, m.renderWeekRow(row))
	}
	return lines
}

func rowLabel(row int) string {
	prefix := "AM"
	if task.Periods[row/task.MaxPositionsPerSlot] == task.Afternoon {
		prefix = "PM"
	}
	return fmt.Sprintf("%s %d", prefix, row%task.MaxPositionsPerSlot+1)
}

func (m Model) renderWeekRow(row int) string {
	var b strings.Builder
	b.WriteString(m.styles.RowLabelStyle.Render(rowLabel(row)))

	period := task.Periods[row/task.MaxPositionsPerSlot]
	position := row % task.MaxPositionsPerSlot
	for col, day := range m.days {
		t, _ := m.board.At(day, period, position)
		selected := !m.onParking() && m.cursor.Day == col && m.cursor.Row == row
		b.WriteString(m.renderCell(t, position, selected, false))
	}
	return b.String()
}

func (m Model) renderParking() []string {
	parked := m.board.Parked()
	title := m.styles.TitleStyle.Render(fmt.Sprintf("Parking (%d)", len(parked)))

	cells := len(parked)
	if m.mode == ModeMove {
		cells++
	}
	visible := max(1, (m.innerWidth()-rowLabelWidth)/m.colWidth)
	start := 0
	if m.onParking() && m.cursor.Park >= visible {
		start = m.cursor.Park - visible + 1
	}

	var b strings.Builder
	b.WriteString(m.styles.RowLabelStyle.Render(""))
	if cells == 0 {
		b.WriteString(m.renderCell(nil, 0, m.onParking(), true))
	}
	for i := start; i < min(cells, start+visible); i++ {
		var t *task.Task
		if i < len(parked) {
			t = parked[i]
		}
		b.WriteString(m.renderCell(t, i, m.onParking() && m.cursor.Park == i, true))
	}
	if end := start + visible; end < cells {
		b.WriteString(m.styles.HelpStyle.Render(fmt.Sprintf(" +%d", cells-end)))
	}
	return []string{title, b.String()}
}

// renderCell draws one slot. t is nil for an empty slot.
func (m Model) renderCell(t *task.Task, position int, selected, parked bool) string {
	style, text := m.cellStyle(t, position, selected, parked), "·"
	if t != nil {
		text = t.Title
		if t.Completed {
			text = "✓ " + text
		}
	}
	if selected && m.mode == ModeMove && m.moving != nil {
		text = "▸ " + m.moving.Title
	}
	text = ansi.Truncate(text, m.colWidth-2, "…")
	return style.Width(m.colWidth).Render(" " + text)
}

func (m Model) cellStyle(t *task.Task, position int, selected, parked bool) lipgloss.Style {
	s := m.styles
	switch {
	case selected && m.mode == ModeMove:
		return s.DropTargetStyle
	case selected:
		return s.CursorStyle
	case t == nil:
		return s.EmptyCellStyle
	case m.moving != nil && t.ID == m.moving.ID:
		return s.MovingStyle
	case t.Completed:
		return s.DoneStyle
	case parked && position%2 == 1:
		return s.ParkedAltStyle
	case parked:
		return s.ParkedStyle
	case position%2 == 1:
		return s.TaskAltStyle
	default:
		return s.TaskStyle
	}
}

func (m Model) renderStatus() string {
	if m.statusMsg != "" {
		return m.styles.StatusStyle.Render(m.statusMsg)
	}
	if t := m.taskAtCursor(); t != nil && t.Note != "" {
		return m.styles.HelpStyle.Render(ansi.Truncate(t.Note, m.innerWidth(), "…"))
	}
	return m.styles.HelpStyle.Render(m.cursorSlotID())
}

func (m Model) renderHelp() string {
	var help string
	switch m.mode {
	case ModeMove:
		help = "hjkl choose slot · enter drop · esc cancel"
	default:
		help = "hjkl move · a add · e edit · space done · x delete · m grab · y copy id · r reload · q quit"
		if m.pendingMigration > 0 {
			help += " · M migrate"
		}
	}
	return m.styles.HelpStyle.Render(ansi.Truncate(help, m.innerWidth(), "…"))
}

func (m Model) renderModal() string {
	s := m.styles
	var lines []string

	switch m.modalType {
	case ModalTaskForm:
		heading := "New task · " + bucketLabel(m.formTarget)
		if m.modalTask != nil {
			heading = "Edit task · " + bucketLabel(m.modalTask.Location.Bucket())
		}
		lines = append(lines,
			s.ModalTitleStyle.Render(heading), "",
			s.ModalLabelStyle.Render("Title"),
			m.inputStyle(0).Render(m.formTitle.View()),
			s.ModalLabelStyle.Render("Note"),
			m.inputStyle(1).Render(m.formNote.View()),
		)
		if m.formErr != "" {
			lines = append(lines, s.ModalErrorStyle.Render(m.formErr))
		}
		lines = append(lines, "", s.ModalHintStyle.Render("enter save · tab switch field · esc cancel"))

	case ModalConfirmDelete:
		title := ""
		if m.modalTask != nil {
			title = m.modalTask.Title
		}
		lines = append(lines,
			s.ModalTitleStyle.Render("Delete task?"), "",
			s.ModalBodyStyle.Render(title), "",
			s.ModalHintStyle.Render("y delete · n cancel"),
		)

	case ModalMigrate:
		lines = append(lines,
			s.ModalTitleStyle.Render("Migrate local tasks"), "",
			s.ModalBodyStyle.Render(fmt.Sprintf("You have %d task(s) stored on this device.", m.pendingMigration)),
			s.ModalBodyStyle.Render("Upload them to your account?"), "",
			s.ModalHintStyle.Render("m migrate · d discard · esc later"),
		)
	}

	return s.ModalStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) inputStyle(field int) lipgloss.Style {
	if m.formFocus == field {
		return m.styles.ModalInputFocusStyle
	}
	return m.styles.ModalInputStyle
}

// bucketLabel names a bucket for people, e.g. "Monday morning".
func bucketLabel(b task.Bucket) string {
	if b.Parking {
		return "Parking"
	}
	return b.Day.Title() + " " + string(b.Period)
}
