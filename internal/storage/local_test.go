package storage

import (
	"context"
	"testing"

	"github.com/javiermolinar/weekplan/internal/task"
)

func TestLocalCollection_StoreLoad(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCollection(NewMemoryKV(), nil)

	tasks := []*task.Task{
		{ID: 1, Title: "Buy milk", Location: task.Week{Day: task.Monday, Period: task.Morning}},
		{ID: 2, Title: "Call mum", Note: "after lunch", Location: task.Parking{Position: 0}},
	}
	if err := c.Store(ctx, tasks); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[1].Note != "after lunch" || got[1].Location != (task.Parking{Position: 0}) {
		t.Errorf("unexpected task %+v", got[1])
	}
}

func TestLocalCollection_MissingKey(t *testing.T) {
	c := NewLocalCollection(NewMemoryKV(), nil)
	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no tasks, got %d", len(got))
	}
}

func TestLocalCollection_InvalidJSONLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		data string
		want int
	}{
		{"garbage", "{not json", 0},
		{"object instead of array", `{"id":1}`, 0},
		{"one bad entry", `[{"id":1,"title":"Good","location":{"type":"parking","position":0}},{"id":2,"location":{"type":"moon"}}]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			_ = kv.Set(ctx, TasksKey, []byte(tt.data))
			c := NewLocalCollection(kv, nil)

			got, err := c.Load(ctx)
			if err != nil {
				t.Fatalf("Load must not fail on bad data: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d tasks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestLocalCollection_Clear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	c := NewLocalCollection(kv, nil)
	_ = c.Store(ctx, []*task.Task{{ID: 1, Title: "Buy milk", Location: task.Parking{}}})

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, TasksKey); ok {
		t.Error("key should be removed")
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("Len: got %d", n)
	}
}

func TestLocalCollection_StoreEmptyWritesArray(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	c := NewLocalCollection(kv, nil)

	if err := c.Store(ctx, nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	data, _, _ := kv.Get(ctx, TasksKey)
	if string(data) != "[]" {
		t.Errorf("got %s, want []", data)
	}
}
