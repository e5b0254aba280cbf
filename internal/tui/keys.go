package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/weekplan/internal/task"
	"github.com/javiermolinar/weekplan/internal/tui/commands"
)

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys (work in all modes)
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModeMove:
		return m.handleMoveKeys(msg)
	case ModeModal:
		return m.handleModalKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// navigate moves the cursor for the arrow and vim keys. It reports false for
// any other key.
func (m *Model) navigate(key string) bool {
	switch key {
	case "h", "left":
		if m.onParking() {
			m.cursor.Park--
		} else {
			m.cursor.Day--
		}
	case "l", "right":
		if m.onParking() {
			m.cursor.Park++
		} else {
			m.cursor.Day++
		}
	case "j", "down":
		m.cursor.Row++
	case "k", "up":
		m.cursor.Row--
	case "g", "home":
		m.cursor.Row = 0
	case "G", "end":
		m.cursor.Row = parkingRow
	default:
		return false
	}
	m.clampCursor()
	return true
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.navigate(key) {
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "a", "n":
		return m.openAddForm()

	case "e", "enter":
		if t := m.taskAtCursor(); t != nil {
			return m.openEditForm(t)
		}
		if key == "enter" {
			return m.openAddForm()
		}

	case " ":
		if t := m.taskAtCursor(); t != nil {
			return m, commands.Toggle(m.session, t.ID)
		}

	case "x", "d", "delete":
		if t := m.taskAtCursor(); t != nil {
			m.mode = ModeModal
			m.modalType = ModalConfirmDelete
			m.modalTask = t
		}

	case "m":
		t := m.taskAtCursor()
		if t == nil {
			return m, m.setStatus("No task to move")
		}
		m.mode = ModeMove
		m.moving = t
		m.statusMsg = ""
		m.clampCursor()

	case "y":
		return m, commands.CopySlotID(m.clipboard, m.cursorSlotID())

	case "M":
		if m.pendingMigration == 0 {
			return m, m.setStatus("No local tasks to migrate")
		}
		m.openMigrate()

	case "r":
		return m, commands.Load(m.session)
	}

	return m, nil
}

// handleMoveKeys handles keys while a task is grabbed.
func (m Model) handleMoveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.navigate(key) {
		return m, nil
	}

	switch key {
	case "enter", " ", "m":
		return m.drop(m.cursorSlotID())
	case "esc", "q":
		return m.drop("")
	}
	return m, nil
}

// drop releases the grabbed task over slotID. An empty slotID cancels.
func (m Model) drop(slotID string) (tea.Model, tea.Cmd) {
	id := m.moving.ID
	m.mode = ModeNormal
	m.moving = nil
	m.clampCursor()
	return m, commands.Drop(m.session, id, slotID)
}

// handleModalKeys routes keys to the active modal.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modalType {
	case ModalTaskForm:
		return m.handleTaskFormKeys(msg)
	case ModalConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case ModalMigrate:
		return m.handleMigrateKeys(msg)
	}
	m.closeModal()
	return m, nil
}

func (m Model) handleTaskFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "tab", "shift+tab", "down", "up":
		m.formFocus = 1 - m.formFocus
		return m, m.focusFormField()
	case "enter":
		return m.saveTaskFromForm()
	}
	return m.updateFormInput(msg)
}

// updateFormInput forwards a message to the focused form field.
func (m Model) updateFormInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.formTitle, cmd = m.formTitle.Update(msg)
	} else {
		m.formNote, cmd = m.formNote.Update(msg)
	}
	if _, ok := msg.(tea.KeyMsg); ok {
		m.formErr = ""
	}
	return m, cmd
}

func (m *Model) focusFormField() tea.Cmd {
	if m.formFocus == 0 {
		m.formNote.Blur()
		return m.formTitle.Focus()
	}
	m.formTitle.Blur()
	return m.formNote.Focus()
}

func (m Model) openAddForm() (tea.Model, tea.Cmd) {
	target := m.cursorBucket()
	if c := target.Capacity(); c >= 0 && len(m.board.Bucket(target)) >= c {
		return m, m.setStatus(target.String() + " is full")
	}
	m.mode = ModeModal
	m.modalType = ModalTaskForm
	m.modalTask = nil
	m.formTarget = target
	m.formTitle.SetValue("")
	m.formNote.SetValue("")
	m.formFocus = 0
	m.formErr = ""
	return m, tea.Batch(m.focusFormField(), textinput.Blink)
}

func (m Model) openEditForm(t *task.Task) (tea.Model, tea.Cmd) {
	m.mode = ModeModal
	m.modalType = ModalTaskForm
	m.modalTask = t
	m.formTitle.SetValue(t.Title)
	m.formNote.SetValue(t.Note)
	m.formFocus = 0
	m.formErr = ""
	return m, tea.Batch(m.focusFormField(), textinput.Blink)
}

// saveTaskFromForm validates the form inline and, when valid, closes it and
// hands the change to the session.
func (m Model) saveTaskFromForm() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.formTitle.Value())
	note := strings.TrimSpace(m.formNote.Value())

	if err := task.ValidateTitle(title); err != nil {
		m.formErr = err.Error()
		m.formFocus = 0
		return m, m.focusFormField()
	}
	if err := task.ValidateNote(note); err != nil {
		m.formErr = err.Error()
		m.formFocus = 1
		return m, m.focusFormField()
	}

	edited := m.modalTask
	target := m.formTarget
	m.closeModal()

	if edited == nil {
		return m, commands.Add(m.session, task.Input{Title: title, Note: note}, target)
	}

	var p task.Patch
	if title != edited.Title {
		p.Title = &title
	}
	if note != edited.Note {
		p.Note = &note
	}
	if p.IsEmpty() {
		return m, m.setStatus("No changes")
	}
	return m, commands.Update(m.session, edited.ID, p)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		t := m.modalTask
		m.closeModal()
		return m, commands.Delete(m.session, t.ID)
	case "n", "esc", "q":
		m.closeModal()
	}
	return m, nil
}

func (m Model) handleMigrateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "m", "enter":
		m.closeModal()
		m.statusMsg = "Migrating..."
		return m, commands.Migrate(m.session, m.currentUser())
	case "d":
		m.closeModal()
		return m, commands.Discard(m.session)
	case "esc", "q":
		m.closeModal()
		return m, m.setStatus("Migration postponed (press M to resume)")
	}
	return m, nil
}

func (m *Model) openMigrate() {
	m.mode = ModeModal
	m.modalType = ModalMigrate
}

func (m *Model) closeModal() {
	m.formTitle.Blur()
	m.formNote.Blur()
	m.mode = ModeNormal
	m.modalType = ModalNone
	m.modalTask = nil
	m.formErr = ""
}
