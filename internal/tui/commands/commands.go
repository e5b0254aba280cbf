// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/migrate"
	"github.com/javiermolinar/weekplan/internal/planner"
	"github.com/javiermolinar/weekplan/internal/task"
)

// opTimeout bounds every storage call made from the TUI.
const opTimeout = 15 * time.Second

// statusDuration is how long a status message stays visible.
const statusDuration = 4 * time.Second

// Session is the part of planner.Session the TUI drives.
type Session interface {
	Load(ctx context.Context) error
	Add(ctx context.Context, in task.Input, target task.Bucket) (*task.Task, error)
	Update(ctx context.Context, id int64, p task.Patch) (*task.Task, error)
	ToggleComplete(ctx context.Context, id int64) (*task.Task, error)
	Delete(ctx context.Context, id int64) error
	MoveToSlot(ctx context.Context, id int64, slotID string) (*task.Task, error)
	Migrate(ctx context.Context, u *auth.User) migrate.Result
	DiscardLocal(ctx context.Context) error
}

var _ Session = (*planner.Session)(nil)

// Clipboard writes text to the system clipboard.
type Clipboard func(text string) error

// SystemClipboard uses the platform clipboard.
var SystemClipboard Clipboard = clipboard.WriteAll

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// LoadedMsg is sent when the board was (re)loaded from storage.
type LoadedMsg struct{}

// DoneMsg is sent when a task operation succeeded.
type DoneMsg struct {
	Op   string
	Task *task.Task
}

// EventMsg carries a planner event into the update loop.
type EventMsg struct {
	Event planner.Event
}

// MigratedMsg is sent when a migration run finished, successful or not.
type MigratedMsg struct {
	Result migrate.Result
}

// DiscardedMsg is sent when local tasks were dropped.
type DiscardedMsg struct{}

func run(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func taskMsg(op string, t *task.Task, err error) tea.Msg {
	if err != nil {
		return ErrMsg{Err: err}
	}
	return DoneMsg{Op: op, Task: t}
}

// Load reloads the board from storage.
func Load(s Session) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		if err := s.Load(ctx); err != nil {
			return ErrMsg{Err: fmt.Errorf("loading tasks: %w", err)}
		}
		return LoadedMsg{}
	})
}

// Add creates a task at the end of target.
func Add(s Session, in task.Input, target task.Bucket) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		t, err := s.Add(ctx, in, target)
		return taskMsg("added", t, err)
	})
}

// Update edits a task.
func Update(s Session, id int64, p task.Patch) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		t, err := s.Update(ctx, id, p)
		return taskMsg("updated", t, err)
	})
}

// Toggle flips the completed flag of a task.
func Toggle(s Session, id int64) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		t, err := s.ToggleComplete(ctx, id)
		return taskMsg("toggled", t, err)
	})
}

// Delete removes a task.
func Delete(s Session, id int64) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		return taskMsg("deleted", nil, s.Delete(ctx, id))
	})
}

// Drop releases a grabbed task over slotID. An empty slotID cancels the move.
func Drop(s Session, id int64, slotID string) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		t, err := s.MoveToSlot(ctx, id, slotID)
		if slotID == "" && err == nil {
			return StatusMsgCmd{Msg: "Move cancelled"}
		}
		return taskMsg("moved", t, err)
	})
}

// Migrate uploads local tasks to u's account.
func Migrate(s Session, u *auth.User) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		return MigratedMsg{Result: s.Migrate(ctx, u)}
	})
}

// Discard drops local tasks.
func Discard(s Session) tea.Cmd {
	return run(func(ctx context.Context) tea.Msg {
		if err := s.DiscardLocal(ctx); err != nil {
			return ErrMsg{Err: err}
		}
		return DiscardedMsg{}
	})
}

// CopySlotID puts a slot id on the clipboard.
func CopySlotID(write Clipboard, slotID string) tea.Cmd {
	return func() tea.Msg {
		if err := write(slotID); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying slot id: %w", err)}
		}
		return StatusMsgCmd{Msg: "Copied " + slotID}
	}
}

// WaitForEvent blocks until the session publishes an event.
func WaitForEvent(events <-chan planner.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// ClearStatusAfter clears the status line after the default delay.
func ClearStatusAfter() tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
