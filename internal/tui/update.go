package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/planner"
	"github.com/javiermolinar/weekplan/internal/task"
	"github.com/javiermolinar/weekplan/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.colWidth = m.calculateColWidth()
		return m, nil

	case commands.LoadedMsg:
		m.refresh()
		return m, m.setStatus("Reloaded")

	case commands.DoneMsg:
		m.refresh()
		if msg.Task != nil && (msg.Op == "added" || msg.Op == "moved") {
			m.focus(msg.Task.Location)
		}
		return m, m.setStatus(doneStatus(msg))

	case commands.ErrMsg:
		// The session has already rolled back; show what the board holds now.
		m.refresh()
		m.logger.Debug("operation failed", zap.Error(msg.Err))
		return m, m.setStatus(fmt.Sprintf("Error: %v", msg.Err))

	case commands.StatusMsgCmd:
		m.refresh()
		return m, m.setStatus(msg.Msg)

	case commands.ClearStatusMsg:
		if time.Since(m.statusTime) >= statusHold {
			m.statusMsg = ""
		}
		return m, nil

	case commands.EventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(cmd, commands.WaitForEvent(m.events))

	case commands.MigratedMsg:
		m.refresh()
		if m.modalType == ModalMigrate {
			m.closeModal()
		}
		res := msg.Result
		if res.Err != nil && res.Migrated == 0 {
			return m, m.setStatus(fmt.Sprintf("Migration failed: %v", res.Err))
		}
		m.pendingMigration = 0
		switch {
		case res.Err != nil:
			return m, m.setStatus(fmt.Sprintf("Migrated %d task(s), but: %v", res.Migrated, res.Err))
		case res.Migrated == 0:
			return m, m.setStatus("No local tasks to migrate")
		case res.Parked > 0:
			return m, m.setStatus(fmt.Sprintf("Migrated %d task(s), %d parked because their slot was full", res.Migrated, res.Parked))
		}
		return m, m.setStatus(fmt.Sprintf("Migrated %d task(s) to your account", res.Migrated))

	case commands.DiscardedMsg:
		m.refresh()
		if m.modalType == ModalMigrate {
			m.closeModal()
		}
		m.pendingMigration = 0
		return m, m.setStatus("Local tasks discarded")
	}

	if m.mode == ModeModal && m.modalType == ModalTaskForm {
		return m.updateFormInput(msg)
	}
	return m, nil
}

// handleEvent applies a session event published outside the update loop.
func (m *Model) handleEvent(ev planner.Event) tea.Cmd {
	m.refresh()
	switch ev.Kind {
	case planner.EventMigrationAvailable:
		m.pendingMigration = ev.Count
		if m.mode == ModeNormal {
			m.openMigrate()
		}
		return nil
	case planner.EventModeChanged:
		if u := m.currentUser(); u != nil {
			return m.setStatus("Signed in as " + u.Email)
		}
		m.pendingMigration = 0
		return m.setStatus("Working locally")
	case planner.EventError:
		if ev.Err == nil || errors.Is(ev.Err, planner.ErrNoMigrator) {
			return nil
		}
		return m.setStatus(fmt.Sprintf("Error: %v", ev.Err))
	}
	return nil
}

func doneStatus(msg commands.DoneMsg) string {
	t := msg.Task
	switch msg.Op {
	case "added":
		return "Added: " + t.Title
	case "updated":
		return "Updated: " + t.Title
	case "toggled":
		if t.Completed {
			return "Completed: " + t.Title
		}
		return "Reopened: " + t.Title
	case "moved":
		return "Moved to " + task.LocationID(t.Location)
	case "deleted":
		return "Deleted task"
	}
	return msg.Op
}
