// Package migrate moves tasks stored on this machine into the signed-in
// user's remote store.
package migrate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

// ErrNotAuthenticated is returned when no user is signed in.
var ErrNotAuthenticated = errors.New("sign in before migrating tasks")

// MigrationError reports a failed migration. Local tasks are left untouched.
type MigrationError struct {
	Stage string
	Count int
	Err   error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrating %d tasks: %s: %v", e.Count, e.Stage, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// Result is the outcome of a migration run.
type Result struct {
	Migrated int
	Parked   int // tasks moved to parking because their slot was full
	Tasks    []*task.Task
	Err      error
}

// OK returns true if the run succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Coordinator transfers the local collection to the remote backend in one bulk
// insert. Either every task is migrated or none is. Local tasks are placed after
// the account's existing tasks; those that find their slot full are parked.
type Coordinator struct {
	local   *storage.LocalCollection
	backend storage.Backend
	logger  *zap.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(local *storage.LocalCollection, backend storage.Backend, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{local: local, backend: backend, logger: logger}
}

// Pending returns the number of tasks waiting in local storage.
func (c *Coordinator) Pending(ctx context.Context) (int, error) {
	return c.local.Len(ctx)
}

// Run migrates every local task to user. On success local storage is cleared.
// An empty local store succeeds with nothing migrated.
func (c *Coordinator) Run(ctx context.Context, user *auth.User) Result {
	if user == nil || user.ID == "" {
		return Result{Err: ErrNotAuthenticated}
	}

	tasks, err := c.local.Load(ctx)
	if err != nil {
		return Result{Err: &MigrationError{Stage: "reading local tasks", Err: err}}
	}
	if len(tasks) == 0 {
		return Result{}
	}

	log := c.logger.With(zap.String("user_id", user.ID), zap.Int("count", len(tasks)))
	log.Info("migrating local tasks")

	existing, err := c.backend.List(ctx, user.ID)
	if err != nil {
		log.Warn("reading remote tasks failed", zap.Error(err))
		return Result{Err: &MigrationError{Stage: "reading remote tasks", Count: len(tasks), Err: err}}
	}
	placed := task.PlaceAfter(existing, tasks)
	parked := spilled(tasks, placed)
	if parked > 0 {
		log.Info("slots already full, parking tasks", zap.Int("parked", parked))
	}

	stored, err := c.backend.BulkInsert(ctx, storage.NewRecords(user.ID, placed))
	if err != nil {
		log.Warn("migration failed", zap.Error(err))
		return Result{Err: &MigrationError{Stage: "uploading", Count: len(tasks), Err: err}}
	}

	if err := c.local.Clear(ctx); err != nil {
		// The remote copy exists; a retry would duplicate it.
		log.Error("migrated tasks but could not clear local storage", zap.Error(err))
		return Result{
			Migrated: len(stored),
			Parked:   parked,
			Tasks:    stored,
			Err:      &MigrationError{Stage: "clearing local tasks", Count: len(tasks), Err: err},
		}
	}

	log.Info("migration complete", zap.Int("migrated", len(stored)))
	return Result{Migrated: len(stored), Parked: parked, Tasks: stored}
}

// spilled counts tasks that left a week slot for parking.
func spilled(before, after []*task.Task) int {
	n := 0
	for i, t := range before {
		if t.Location != nil && !t.Location.Bucket().Parking && after[i].Location.Bucket().Parking {
			n++
		}
	}
	return n
}

// Discard drops the local tasks without migrating them.
func (c *Coordinator) Discard(ctx context.Context) error {
	if err := c.local.Clear(ctx); err != nil {
		return fmt.Errorf("discarding local tasks: %w", err)
	}
	c.logger.Info("local tasks discarded")
	return nil
}
