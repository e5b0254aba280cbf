// Package storage persists tasks either on the local machine or in an
// owner-scoped remote backend.
package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/task"
)

// Mode selects where tasks are read from and written to.
type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Backend is the owner-scoped remote task store.
// A record owned by someone else is reported as *task.NotFoundError.
type Backend interface {
	List(ctx context.Context, ownerID string) ([]*task.Task, error)
	Insert(ctx context.Context, ownerID string, t *task.Task) (*task.Task, error)
	Update(ctx context.Context, id int64, ownerID string, p task.Patch) (*task.Task, error)
	Delete(ctx context.Context, id int64, ownerID string) error
	BulkInsert(ctx context.Context, records []Record) ([]*task.Task, error)
}

// Adapter routes task persistence to the local collection or the remote backend.
// It never touches the in-memory board; callers decide what to do with failures.
type Adapter struct {
	local  *LocalCollection
	remote Backend
	logger *zap.Logger

	mu    sync.RWMutex
	mode  Mode
	owner string

	// localMu serialises read-modify-write cycles on the local collection.
	localMu sync.Mutex
}

// NewAdapter returns an adapter in local mode. remote may be nil.
func NewAdapter(local *LocalCollection, remote Backend, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{local: local, remote: remote, logger: logger}
}

// Mode returns the active mode.
func (a *Adapter) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// Owner returns the owner id used in remote mode.
func (a *Adapter) Owner() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner
}

// Local returns the local collection.
func (a *Adapter) Local() *LocalCollection {
	return a.local
}

// UseLocal switches to local mode.
func (a *Adapter) UseLocal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = ModeLocal
	a.owner = ""
	a.logger.Debug("storage mode changed", zap.Stringer("mode", ModeLocal))
}

// UseRemote switches to remote mode for the given owner.
func (a *Adapter) UseRemote(ownerID string) error {
	if ownerID == "" {
		return ErrNoOwner
	}
	if a.remote == nil {
		return ErrNoBackend
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = ModeRemote
	a.owner = ownerID
	a.logger.Debug("storage mode changed", zap.Stringer("mode", ModeRemote), zap.String("owner", ownerID))
	return nil
}

func (a *Adapter) state() (Mode, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode, a.owner
}

// LoadAll returns every task visible in the active mode.
func (a *Adapter) LoadAll(ctx context.Context) ([]*task.Task, error) {
	mode, owner := a.state()
	if mode == ModeRemote {
		if owner == "" {
			return nil, wrap("loading tasks", mode, ErrNoOwner)
		}
		tasks, err := a.remote.List(ctx, owner)
		return tasks, wrap("loading tasks", mode, err)
	}
	tasks, err := a.local.Load(ctx)
	return tasks, wrap("loading tasks", mode, err)
}

// Save writes a new task and returns the stored copy. Remote backends may assign a new id.
func (a *Adapter) Save(ctx context.Context, t *task.Task) (*task.Task, error) {
	mode, owner := a.state()
	if mode == ModeRemote {
		if owner == "" {
			return nil, wrap("saving task", mode, ErrNoOwner)
		}
		stored, err := a.remote.Insert(ctx, owner, t)
		return stored, wrap("saving task", mode, err)
	}
	err := a.modifyLocal(ctx, func(tasks []*task.Task) ([]*task.Task, error) {
		return upsert(tasks, t), nil
	})
	if err != nil {
		return nil, wrap("saving task", mode, err)
	}
	return t.Clone(), nil
}

// Update applies a patch to a stored task.
func (a *Adapter) Update(ctx context.Context, id int64, p task.Patch) (*task.Task, error) {
	mode, owner := a.state()
	if mode == ModeRemote {
		if owner == "" {
			return nil, wrap("updating task", mode, ErrNoOwner)
		}
		stored, err := a.remote.Update(ctx, id, owner, p)
		return stored, wrap("updating task", mode, err)
	}
	var updated *task.Task
	err := a.modifyLocal(ctx, func(tasks []*task.Task) ([]*task.Task, error) {
		i := slices.IndexFunc(tasks, func(t *task.Task) bool { return t.ID == id })
		if i < 0 {
			return nil, &task.NotFoundError{ID: id}
		}
		p.ApplyTo(tasks[i])
		updated = tasks[i].Clone()
		return tasks, nil
	})
	if err != nil {
		return nil, wrap("updating task", mode, err)
	}
	return updated, nil
}

// Remove deletes a stored task. Removing a missing task is not an error.
func (a *Adapter) Remove(ctx context.Context, id int64) error {
	mode, owner := a.state()
	if mode == ModeRemote {
		if owner == "" {
			return wrap("removing task", mode, ErrNoOwner)
		}
		err := a.remote.Delete(ctx, id, owner)
		if errors.Is(err, task.ErrNotFound) {
			return nil
		}
		return wrap("removing task", mode, err)
	}
	err := a.modifyLocal(ctx, func(tasks []*task.Task) ([]*task.Task, error) {
		return slices.DeleteFunc(tasks, func(t *task.Task) bool { return t.ID == id }), nil
	})
	return wrap("removing task", mode, err)
}

// Apply writes every record of a board change. It returns a map from the
// ids the board assigned to the ids the backend stored, for ids that differ.
// Local mode writes the whole change in one step; remote mode stops at the
// first failing call.
func (a *Adapter) Apply(ctx context.Context, c task.Change) (map[int64]int64, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	mode, owner := a.state()
	if mode == ModeRemote {
		if owner == "" {
			return nil, wrap("writing changes", mode, ErrNoOwner)
		}
		return a.applyRemote(ctx, owner, c)
	}

	err := a.modifyLocal(ctx, func(tasks []*task.Task) ([]*task.Task, error) {
		for _, t := range c.Created {
			tasks = upsert(tasks, t)
		}
		for _, t := range c.Updated {
			tasks = upsert(tasks, t)
		}
		return slices.DeleteFunc(tasks, func(t *task.Task) bool {
			return slices.Contains(c.Removed, t.ID)
		}), nil
	})
	return nil, wrap("writing changes", mode, err)
}

func (a *Adapter) applyRemote(ctx context.Context, owner string, c task.Change) (map[int64]int64, error) {
	const mode = ModeRemote
	var remap map[int64]int64

	for _, id := range c.Removed {
		if err := a.remote.Delete(ctx, id, owner); err != nil && !errors.Is(err, task.ErrNotFound) {
			return remap, wrap("removing task", mode, err)
		}
	}
	for _, t := range c.Updated {
		if _, err := a.remote.Update(ctx, t.ID, owner, FullPatch(t)); err != nil {
			return remap, wrap("updating task", mode, err)
		}
	}
	for _, t := range c.Created {
		stored, err := a.remote.Insert(ctx, owner, t)
		if err != nil {
			return remap, wrap("saving task", mode, err)
		}
		if stored != nil && stored.ID != t.ID {
			if remap == nil {
				remap = make(map[int64]int64)
			}
			remap[t.ID] = stored.ID
		}
	}
	return remap, nil
}

func (a *Adapter) modifyLocal(ctx context.Context, fn func([]*task.Task) ([]*task.Task, error)) error {
	a.localMu.Lock()
	defer a.localMu.Unlock()

	tasks, err := a.local.Load(ctx)
	if err != nil {
		return err
	}
	tasks, err = fn(tasks)
	if err != nil {
		return err
	}
	return a.local.Store(ctx, tasks)
}

func upsert(tasks []*task.Task, t *task.Task) []*task.Task {
	if i := slices.IndexFunc(tasks, func(s *task.Task) bool { return s.ID == t.ID }); i >= 0 {
		tasks[i] = t.Clone()
		return tasks
	}
	return append(tasks, t.Clone())
}
