package remote

import (
	"sync"

	"github.com/javiermolinar/weekplan/internal/auth"
)

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(*auth.User)
}

func (s *subscribers) add(fn func(*auth.User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(*auth.User))
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

func (s *subscribers) notify(u *auth.User) {
	s.mu.Lock()
	fns := make([]func(*auth.User), 0, len(s.fns))
	for id := 0; id < s.next; id++ {
		if fn, ok := s.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		var copied *auth.User
		if u != nil {
			c := *u
			copied = &c
		}
		fn(copied)
	}
}
