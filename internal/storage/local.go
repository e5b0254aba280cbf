package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/javiermolinar/weekplan/internal/task"
)

// TasksKey is the key holding the local task collection.
const TasksKey = "weekplanner-tasks"

// KeyValue is a durable string-keyed blob store.
// Get returns ok=false for a missing key.
type KeyValue interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LocalCollection stores every task as one JSON array under a single key.
type LocalCollection struct {
	kv     KeyValue
	key    string
	logger *zap.Logger
}

// NewLocalCollection returns a collection stored under TasksKey.
func NewLocalCollection(kv KeyValue, logger *zap.Logger) *LocalCollection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalCollection{kv: kv, key: TasksKey, logger: logger}
}

// Load returns the stored tasks. A missing key or unreadable JSON yields an
// empty list; individual malformed entries are skipped.
func (c *LocalCollection) Load(ctx context.Context) ([]*task.Task, error) {
	data, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.key, err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Warn("discarding unreadable local task collection",
			zap.String("key", c.key), zap.Error(err))
		return nil, nil
	}

	tasks := make([]*task.Task, 0, len(raw))
	for i, item := range raw {
		var t task.Task
		if err := json.Unmarshal(item, &t); err != nil {
			c.logger.Warn("skipping malformed local task",
				zap.String("key", c.key), zap.Int("index", i), zap.Error(err))
			continue
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

// Store replaces the stored collection.
func (c *LocalCollection) Store(ctx context.Context, tasks []*task.Task) error {
	if tasks == nil {
		tasks = []*task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	if err := c.kv.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("writing %s: %w", c.key, err)
	}
	return nil
}

// Clear removes the stored collection.
func (c *LocalCollection) Clear(ctx context.Context) error {
	if err := c.kv.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("clearing %s: %w", c.key, err)
	}
	return nil
}

// Len returns the number of stored tasks.
func (c *LocalCollection) Len(ctx context.Context) (int, error) {
	tasks, err := c.Load(ctx)
	return len(tasks), err
}

// MemoryKV is a KeyValue held in memory.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return append([]byte(nil), v...), ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
