package server

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRateLimiter_ConcurrentFirstRequests(t *testing.T) {
	const burst = 5
	rl := newRateLimiter(1, burst)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if rl.Allow("10.0.0.1") == nil {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := allowed.Load(); got != burst {
		t.Errorf("got %d requests allowed, want %d", got, burst)
	}
	if got := rl.limiters.Len(); got != 1 {
		t.Errorf("got %d limiters for one client, want 1", got)
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := newRateLimiter(1, 1)

	if err := rl.Allow("a"); err != nil {
		t.Fatalf("first request from a: %v", err)
	}
	if err := rl.Allow("a"); err == nil {
		t.Error("second request from a should be limited")
	}
	if err := rl.Allow("b"); err != nil {
		t.Errorf("first request from b: %v", err)
	}
}
