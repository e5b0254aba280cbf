package planner

import (
	"sync"

	"github.com/javiermolinar/weekplan/internal/storage"
)

// EventKind identifies what happened in a session.
type EventKind int

const (
	// EventChanged fires after an optimistic change to the board.
	EventChanged EventKind = iota
	// EventReloaded fires after the board was replaced from storage.
	EventReloaded
	// EventError fires when a write or reload failed. Err is set.
	EventError
	// EventModeChanged fires when storage switched between local and remote. Mode is set.
	EventModeChanged
	// EventMigrationAvailable fires after sign in when local tasks exist. Count is set.
	EventMigrationAvailable
)

func (k EventKind) String() string {
	switch k {
	case EventChanged:
		return "changed"
	case EventReloaded:
		return "reloaded"
	case EventError:
		return "error"
	case EventModeChanged:
		return "mode_changed"
	case EventMigrationAvailable:
		return "migration_available"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers.
type Event struct {
	Kind  EventKind
	Err   error
	Mode  storage.Mode
	Count int
}

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Event)
}

func (s *subscribers) add(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.fns, id)
		})
	}
}

func (s *subscribers) notify(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.fns))
	for id := 0; id < s.next; id++ {
		if fn, ok := s.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
