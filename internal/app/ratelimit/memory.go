package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. A single mutex serializes
// every Take, which is what keeps two requests from the same identity from
// both taking the last slot.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, now time.Time, window time.Duration, max int) (Window, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || elapsed(w.Start, now, window) {
		w = Window{Start: now, Count: 1}
		s.windows[key] = w
		return w, true, nil
	}
	if w.Count >= max {
		return w, false, nil
	}
	w.Count++
	s.windows[key] = w
	return w, true, nil
}

// Sweep evicts windows that are over at now and returns how many it removed.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		if elapsed(w.Start, now, window) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked identities.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// RunJanitor sweeps elapsed windows every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, window, interval time.Duration) {
	if interval <= 0 {
		interval = window
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now, window)
		}
	}
}
