package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

// bulkBackend records bulk inserts. Only List and BulkInsert are exercised by
// the coordinator.
type bulkBackend struct {
	storage.Backend
	existing []*task.Task
	listErr  error
	records  []storage.Record
	err      error
}

func (b *bulkBackend) List(context.Context, string) ([]*task.Task, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.existing, nil
}

func (b *bulkBackend) BulkInsert(_ context.Context, records []storage.Record) ([]*task.Task, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.records = append(b.records, records...)
	stored := make([]storage.Record, len(records))
	for i, r := range records {
		r.ID = int64(100 + i)
		stored[i] = r
	}
	return storage.Tasks(stored)
}

func newTestCoordinator(t *testing.T, tasks ...*task.Task) (*Coordinator, *storage.LocalCollection, *bulkBackend) {
	t.Helper()
	local := storage.NewLocalCollection(storage.NewMemoryKV(), nil)
	if len(tasks) > 0 {
		if err := local.Store(context.Background(), tasks); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	backend := &bulkBackend{}
	return NewCoordinator(local, backend, nil), local, backend
}

var alice = &auth.User{ID: "alice", Email: "alice@example.com"}

func twoTasks() []*task.Task {
	return []*task.Task{
		{ID: 1, Title: "Buy milk", Location: task.Week{Day: task.Monday, Period: task.Morning}},
		{ID: 2, Title: "Call mum", Location: task.Parking{Position: 0}},
	}
}

func TestRun_MigratesAndClears(t *testing.T) {
	ctx := context.Background()
	c, local, backend := newTestCoordinator(t, twoTasks()...)

	if n, _ := c.Pending(ctx); n != 2 {
		t.Fatalf("Pending: got %d, want 2", n)
	}

	res := c.Run(ctx, alice)
	if !res.OK() {
		t.Fatalf("Run failed: %v", res.Err)
	}
	if res.Migrated != 2 || len(res.Tasks) != 2 {
		t.Errorf("Migrated: got %d (%d tasks)", res.Migrated, len(res.Tasks))
	}

	if n, _ := local.Len(ctx); n != 0 {
		t.Errorf("local store should be empty, has %d", n)
	}
	if len(backend.records) != 2 {
		t.Fatalf("backend got %d records", len(backend.records))
	}
	for _, r := range backend.records {
		if r.OwnerID != "alice" {
			t.Errorf("record %d owner: got %q", r.ID, r.OwnerID)
		}
	}
	if backend.records[0].LocationType != "week" || backend.records[0].Day != "monday" {
		t.Errorf("location not flattened: %+v", backend.records[0])
	}
}

func TestRun_FailureLeavesLocalUntouched(t *testing.T) {
	ctx := context.Background()
	c, local, backend := newTestCoordinator(t, twoTasks()...)
	backend.err = errors.New("network down")

	res := c.Run(ctx, alice)
	var merr *MigrationError
	if !errors.As(res.Err, &merr) {
		t.Fatalf("expected *MigrationError, got %v", res.Err)
	}
	if merr.Count != 2 {
		t.Errorf("Count: got %d", merr.Count)
	}
	if res.Migrated != 0 {
		t.Errorf("Migrated: got %d", res.Migrated)
	}

	tasks, _ := local.Load(ctx)
	if len(tasks) != 2 {
		t.Errorf("local store should keep 2 tasks, has %d", len(tasks))
	}

	// Retry after the backend recovers.
	backend.err = nil
	if res := c.Run(ctx, alice); !res.OK() || res.Migrated != 2 {
		t.Errorf("retry: %+v", res)
	}
}

func TestRun_RequiresUser(t *testing.T) {
	c, _, backend := newTestCoordinator(t, twoTasks()...)
	for _, u := range []*auth.User{nil, {}} {
		if res := c.Run(context.Background(), u); !errors.Is(res.Err, ErrNotAuthenticated) {
			t.Errorf("user %v: got %v, want ErrNotAuthenticated", u, res.Err)
		}
	}
	if len(backend.records) != 0 {
		t.Error("backend should not be called without a user")
	}
}

func TestRun_EmptyLocalStore(t *testing.T) {
	c, _, backend := newTestCoordinator(t)
	res := c.Run(context.Background(), alice)
	if !res.OK() || res.Migrated != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(backend.records) != 0 {
		t.Error("backend should not be called for an empty store")
	}
}

func TestDiscard(t *testing.T) {
	ctx := context.Background()
	c, local, backend := newTestCoordinator(t, twoTasks()...)

	if err := c.Discard(ctx); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if n, _ := local.Len(ctx); n != 0 {
		t.Errorf("local store should be empty, has %d", n)
	}
	if len(backend.records) != 0 {
		t.Error("Discard must not upload")
	}
}

func TestRun_PlacesAfterExistingRemoteTasks(t *testing.T) {
	ctx := context.Background()
	monday := func(id int64, pos int) *task.Task {
		return &task.Task{ID: id, Title: "Monday task", Location: task.Week{Day: task.Monday, Period: task.Morning, Position: pos}}
	}
	c, _, backend := newTestCoordinator(t, monday(1, 0), monday(2, 1), monday(3, 2))
	backend.existing = []*task.Task{monday(50, 0), monday(51, 1), monday(52, 2)}

	res := c.Run(ctx, alice)
	if !res.OK() {
		t.Fatalf("Run failed: %v", res.Err)
	}
	if res.Parked != 2 {
		t.Errorf("Parked: got %d, want 2", res.Parked)
	}

	type placement struct {
		kind string
		pos  int
	}
	want := []placement{{"week", 3}, {"parking", 0}, {"parking", 1}}
	if len(backend.records) != len(want) {
		t.Fatalf("backend got %d records, want %d", len(backend.records), len(want))
	}
	for i, r := range backend.records {
		if got := (placement{r.LocationType, r.Position}); got != want[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got, want[i])
		}
	}
}

func TestRun_ListFailureLeavesLocalUntouched(t *testing.T) {
	ctx := context.Background()
	c, local, backend := newTestCoordinator(t, twoTasks()...)
	backend.listErr = errors.New("network down")

	res := c.Run(ctx, alice)
	var merr *MigrationError
	if !errors.As(res.Err, &merr) || merr.Stage != "reading remote tasks" {
		t.Fatalf("expected a reading stage MigrationError, got %v", res.Err)
	}
	if len(backend.records) != 0 {
		t.Error("nothing should be uploaded when the remote list fails")
	}
	if n, _ := local.Len(ctx); n != 2 {
		t.Errorf("local store should keep 2 tasks, has %d", n)
	}
}
