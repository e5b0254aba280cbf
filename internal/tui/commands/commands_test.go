package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/migrate"
	"github.com/javiermolinar/weekplan/internal/planner"
	"github.com/javiermolinar/weekplan/internal/task"
)

var errBoom = errors.New("boom")

type fakeSession struct {
	err     error
	calls   []string
	dropped string
}

func (f *fakeSession) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeSession) Load(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline")
	}
	return f.record("load")
}

func (f *fakeSession) Add(_ context.Context, in task.Input, target task.Bucket) (*task.Task, error) {
	if err := f.record("add"); err != nil {
		return nil, err
	}
	return &task.Task{ID: 1, Title: in.Title, Location: target.At(0)}, nil
}

func (f *fakeSession) Update(_ context.Context, id int64, _ task.Patch) (*task.Task, error) {
	if err := f.record("update"); err != nil {
		return nil, err
	}
	return &task.Task{ID: id}, nil
}

func (f *fakeSession) ToggleComplete(_ context.Context, id int64) (*task.Task, error) {
	if err := f.record("toggle"); err != nil {
		return nil, err
	}
	return &task.Task{ID: id, Completed: true}, nil
}

func (f *fakeSession) Delete(_ context.Context, _ int64) error {
	return f.record("delete")
}

func (f *fakeSession) MoveToSlot(_ context.Context, id int64, slotID string) (*task.Task, error) {
	f.dropped = slotID
	if err := f.record("move"); err != nil {
		return nil, err
	}
	return &task.Task{ID: id}, nil
}

func (f *fakeSession) Migrate(_ context.Context, u *auth.User) migrate.Result {
	if u == nil {
		return migrate.Result{Err: migrate.ErrNotAuthenticated}
	}
	return migrate.Result{Migrated: 2}
}

func (f *fakeSession) DiscardLocal(_ context.Context) error {
	return f.record("discard")
}

func TestTaskCommands(t *testing.T) {
	tests := []struct {
		name   string
		cmd    func(Session) any
		wantOp string
	}{
		{"add", func(s Session) any { return Add(s, task.Input{Title: "Write"}, task.ParkingBucket())() }, "added"},
		{"update", func(s Session) any { return Update(s, 1, task.Patch{})() }, "updated"},
		{"toggle", func(s Session) any { return Toggle(s, 1)() }, "toggled"},
		{"delete", func(s Session) any { return Delete(s, 1)() }, "deleted"},
		{"drop", func(s Session) any { return Drop(s, 1, "monday-morning-0")() }, "moved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.cmd(&fakeSession{})
			done, ok := msg.(DoneMsg)
			if !ok {
				t.Fatalf("got %T, want DoneMsg", msg)
			}
			if done.Op != tt.wantOp {
				t.Errorf("got op %q, want %q", done.Op, tt.wantOp)
			}
		})

		t.Run(tt.name+" error", func(t *testing.T) {
			msg := tt.cmd(&fakeSession{err: errBoom})
			errMsg, ok := msg.(ErrMsg)
			if !ok {
				t.Fatalf("got %T, want ErrMsg", msg)
			}
			if !errors.Is(errMsg.Err, errBoom) {
				t.Errorf("got %v, want %v", errMsg.Err, errBoom)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	if msg := Load(&fakeSession{})(); msg != (LoadedMsg{}) {
		t.Errorf("got %#v, want LoadedMsg", msg)
	}
	msg := Load(&fakeSession{err: errBoom})()
	if errMsg, ok := msg.(ErrMsg); !ok || !errors.Is(errMsg.Err, errBoom) {
		t.Errorf("got %#v, want ErrMsg wrapping boom", msg)
	}
}

func TestDrop_EmptyTargetCancels(t *testing.T) {
	s := &fakeSession{}
	msg := Drop(s, 1, "")()
	status, ok := msg.(StatusMsgCmd)
	if !ok || status.Msg != "Move cancelled" {
		t.Fatalf("got %#v, want cancel status", msg)
	}
	if len(s.calls) != 1 || s.dropped != "" {
		t.Errorf("expected one MoveToSlot call with empty target, got %v %q", s.calls, s.dropped)
	}
}

func TestMigrate(t *testing.T) {
	msg := Migrate(&fakeSession{}, &auth.User{ID: "u1"})().(MigratedMsg)
	if msg.Result.Migrated != 2 || msg.Result.Err != nil {
		t.Errorf("got %+v, want 2 migrated", msg.Result)
	}
	msg = Migrate(&fakeSession{}, nil)().(MigratedMsg)
	if !errors.Is(msg.Result.Err, migrate.ErrNotAuthenticated) {
		t.Errorf("got %v, want ErrNotAuthenticated", msg.Result.Err)
	}
}

func TestDiscard(t *testing.T) {
	if msg := Discard(&fakeSession{})(); msg != (DiscardedMsg{}) {
		t.Errorf("got %#v, want DiscardedMsg", msg)
	}
}

func TestCopySlotID(t *testing.T) {
	var copied string
	write := func(text string) error {
		copied = text
		return nil
	}

	msg := CopySlotID(write, "friday-afternoon-3")()
	if status, ok := msg.(StatusMsgCmd); !ok || status.Msg != "Copied friday-afternoon-3" {
		t.Errorf("got %#v", msg)
	}
	if copied != "friday-afternoon-3" {
		t.Errorf("clipboard got %q", copied)
	}

	failing := func(string) error { return errBoom }
	if _, ok := CopySlotID(failing, "parking-0")().(ErrMsg); !ok {
		t.Error("expected ErrMsg when the clipboard fails")
	}
}

func TestWaitForEvent(t *testing.T) {
	events := make(chan planner.Event, 1)
	events <- planner.Event{Kind: planner.EventReloaded}

	msg := WaitForEvent(events)()
	if ev, ok := msg.(EventMsg); !ok || ev.Event.Kind != planner.EventReloaded {
		t.Fatalf("got %#v, want reloaded event", msg)
	}

	close(events)
	if msg := WaitForEvent(events)(); msg != nil {
		t.Errorf("got %#v after close, want nil", msg)
	}
}
