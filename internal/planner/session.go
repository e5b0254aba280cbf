// Package planner holds the application state shared by the CLI and the TUI.
//
// A Session applies every change to the in-memory board first, notifies
// subscribers, and then writes through the storage adapter. When a write
// fails the board is reloaded from storage, so it never shows data the store
// does not have.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/migrate"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

// ErrNoMigrator is returned by migration calls on a session without a coordinator.
var ErrNoMigrator = errors.New("migration is not available")

// Session is safe for concurrent use. Concurrent writes to the same task are
// last-write-wins.
type Session struct {
	mu    sync.Mutex
	board *task.Board

	store    *storage.Adapter
	migrator *migrate.Coordinator
	logger   *zap.Logger

	subs subscribers
}

// Option configures a Session.
type Option func(*Session)

// WithMigrator enables migration prompts and Migrate.
func WithMigrator(c *migrate.Coordinator) Option {
	return func(s *Session) { s.migrator = c }
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a session over an empty board.
func NewSession(board *task.Board, store *storage.Adapter, opts ...Option) *Session {
	s := &Session{board: board, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every event. Events are delivered synchronously
// on the goroutine that caused them, never while the session lock is held.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// Mode returns the active storage mode.
func (s *Session) Mode() storage.Mode {
	return s.store.Mode()
}

// Grid returns the board's grid.
func (s *Session) Grid() task.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Grid()
}

// Snapshot returns a copy of the board for reading.
func (s *Session) Snapshot() *task.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// Get returns a copy of a task.
func (s *Session) Get(id int64) (*task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Get(id)
}

// Load replaces the board with the tasks of the active storage mode.
func (s *Session) Load(ctx context.Context) error {
	tasks, err := s.store.LoadAll(ctx)
	if err != nil {
		s.logger.Warn("loading tasks failed", zap.Error(err))
		s.subs.notify(Event{Kind: EventError, Err: err})
		return err
	}

	s.mu.Lock()
	repair := s.board.Replace(tasks)
	n := s.board.Len()
	s.mu.Unlock()
	s.writeRepair(ctx, repair)

	s.logger.Debug("tasks loaded", zap.Int("count", n), zap.Stringer("mode", s.store.Mode()))
	s.subs.notify(Event{Kind: EventReloaded})
	return nil
}

// Add creates a task at the end of the target bucket.
func (s *Session) Add(ctx context.Context, in task.Input, target task.Bucket) (*task.Task, error) {
	return s.apply(ctx, "add", func(b *task.Board) (*task.Task, task.Change, error) {
		return b.Add(in, target)
	})
}

// Update edits the title, note or completed flag of a task.
func (s *Session) Update(ctx context.Context, id int64, p task.Patch) (*task.Task, error) {
	return s.apply(ctx, "update", func(b *task.Board) (*task.Task, task.Change, error) {
		return b.Update(id, p)
	})
}

// ToggleComplete flips the completed flag of a task.
func (s *Session) ToggleComplete(ctx context.Context, id int64) (*task.Task, error) {
	return s.apply(ctx, "toggle", func(b *task.Board) (*task.Task, task.Change, error) {
		return b.ToggleComplete(id)
	})
}

// Delete removes a task. Deleting an unknown id is a no-op.
func (s *Session) Delete(ctx context.Context, id int64) error {
	_, err := s.apply(ctx, "delete", func(b *task.Board) (*task.Task, task.Change, error) {
		return nil, b.Delete(id), nil
	})
	return err
}

// Move relocates a task. Rejected moves leave the board untouched.
func (s *Session) Move(ctx context.Context, id int64, dest task.Location) (*task.Task, error) {
	return s.apply(ctx, "move", func(b *task.Board) (*task.Task, task.Change, error) {
		return b.Move(id, dest)
	})
}

// MoveToSlot moves a task to the slot named by a slot id. An empty id cancels the move.
func (s *Session) MoveToSlot(ctx context.Context, id int64, slotID string) (*task.Task, error) {
	return s.apply(ctx, "move", func(b *task.Board) (*task.Task, task.Change, error) {
		return b.MoveToSlot(id, slotID)
	})
}

type mutation func(*task.Board) (*task.Task, task.Change, error)

func (s *Session) apply(ctx context.Context, op string, fn mutation) (*task.Task, error) {
	s.mu.Lock()
	snapshot := s.board.Clone()
	t, change, err := fn(s.board)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			// The task vanished under us; show what storage has.
			s.logger.Info("task not found, reloading", zap.String("op", op), zap.Error(err))
			s.reload(ctx, snapshot)
			s.subs.notify(Event{Kind: EventError, Err: err})
		}
		return nil, err
	}
	if change.IsEmpty() {
		return t, nil
	}
	s.subs.notify(Event{Kind: EventChanged})

	remap, err := s.store.Apply(ctx, change)
	if err != nil {
		s.logger.Warn("write failed, reloading", zap.String("op", op), zap.Error(err))
		s.reload(ctx, snapshot)
		s.subs.notify(Event{Kind: EventError, Err: err})
		return nil, err
	}

	if len(remap) > 0 {
		s.mu.Lock()
		for oldID, newID := range remap {
			if !s.board.Rekey(oldID, newID) {
				s.logger.Warn("could not adopt stored id", zap.Int64("old", oldID), zap.Int64("new", newID))
			}
		}
		s.mu.Unlock()
		if t != nil {
			if newID, ok := remap[t.ID]; ok {
				t.ID = newID
			}
		}
		s.subs.notify(Event{Kind: EventChanged})
	}
	return t, nil
}

// reload replaces the board from storage. If storage cannot be read the board
// falls back to the state before the failed change.
func (s *Session) reload(ctx context.Context, fallback *task.Board) {
	tasks, err := s.store.LoadAll(ctx)

	var repair task.Change
	s.mu.Lock()
	if err != nil {
		s.logger.Warn("reload failed, restoring previous state", zap.Error(err))
		s.board = fallback
	} else {
		repair = s.board.Replace(tasks)
	}
	s.mu.Unlock()
	s.writeRepair(ctx, repair)

	s.subs.notify(Event{Kind: EventReloaded})
}

// writeRepair stores the positions Replace changed while loading, such as tasks
// spilled out of an overfull slot. A failed write keeps the repaired board and
// is retried on the next load.
func (s *Session) writeRepair(ctx context.Context, repair task.Change) {
	if repair.IsEmpty() {
		return
	}
	s.logger.Info("repairing stored positions", zap.Int("count", len(repair.Updated)))
	if _, err := s.store.Apply(ctx, repair); err != nil {
		s.logger.Warn("writing repaired positions failed", zap.Error(err))
		s.subs.notify(Event{Kind: EventError, Err: err})
	}
}

// HandleAuthChange switches storage to match the signed-in user and reloads.
// A nil user means signed out.
func (s *Session) HandleAuthChange(ctx context.Context, u *auth.User) error {
	if u == nil {
		s.store.UseLocal()
	} else if err := s.store.UseRemote(u.ID); err != nil {
		return fmt.Errorf("switching to remote storage: %w", err)
	}
	mode := s.store.Mode()
	s.logger.Info("storage mode changed", zap.Stringer("mode", mode))
	s.subs.notify(Event{Kind: EventModeChanged, Mode: mode})

	if err := s.Load(ctx); err != nil {
		return err
	}

	if u != nil && s.migrator != nil {
		n, err := s.migrator.Pending(ctx)
		if err != nil {
			s.logger.Warn("counting local tasks failed", zap.Error(err))
			return nil
		}
		if n > 0 {
			s.subs.notify(Event{Kind: EventMigrationAvailable, Count: n})
		}
	}
	return nil
}

// Watch follows the provider's session changes until the returned func is called.
// The current user is applied immediately.
func (s *Session) Watch(ctx context.Context, p auth.Provider) (stop func(), err error) {
	if err := s.HandleAuthChange(ctx, p.CurrentUser()); err != nil {
		return nil, err
	}
	return p.OnSessionChange(func(u *auth.User) {
		if err := s.HandleAuthChange(ctx, u); err != nil {
			s.subs.notify(Event{Kind: EventError, Err: err})
		}
	}), nil
}

// PendingMigration returns the number of local tasks that could be migrated.
func (s *Session) PendingMigration(ctx context.Context) (int, error) {
	if s.migrator == nil {
		return 0, ErrNoMigrator
	}
	return s.migrator.Pending(ctx)
}

// Migrate moves local tasks to u's remote store and reloads on success.
// If the tasks were migrated but the reload failed, res.Migrated is set and
// res.Err wraps the reload error.
func (s *Session) Migrate(ctx context.Context, u *auth.User) migrate.Result {
	if s.migrator == nil {
		return migrate.Result{Err: ErrNoMigrator}
	}
	res := s.migrator.Run(ctx, u)
	if res.Err != nil {
		s.subs.notify(Event{Kind: EventError, Err: res.Err})
	}
	if res.Migrated > 0 && s.store.Mode() == storage.ModeRemote {
		if err := s.Load(ctx); err != nil {
			res.Err = errors.Join(res.Err, fmt.Errorf("reloading after migration: %w", err))
		}
	}
	return res
}

// DiscardLocal drops local tasks instead of migrating them.
func (s *Session) DiscardLocal(ctx context.Context) error {
	if s.migrator == nil {
		return ErrNoMigrator
	}
	if err := s.migrator.Discard(ctx); err != nil {
		return err
	}
	if s.store.Mode() == storage.ModeLocal {
		return s.Load(ctx)
	}
	return nil
}
