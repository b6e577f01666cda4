// Package ratelimit implements the fixed-window limiter that bounds accepted
// contact submissions per client identity.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults match the public contact form: 5 submissions per 10 minutes.
const (
	DefaultWindow = 10 * time.Minute
	DefaultMax    = 5
)

// ErrStore wraps failures of the backing store.
var ErrStore = errors.New("ratelimit: store failure")

// Window is the state of one identity's current window.
type Window struct {
	Start time.Time
	Count int
}

// Store holds per-identity windows. Take must apply the fixed-window rule
// atomically for a given key: concurrent callers for the same key are
// serialized, so only one of them can claim the last slot.
type Store interface {
	// Take starts a new window (count 1) when none exists or the current one
	// has elapsed at now; otherwise increments if count < max. A rejected
	// call leaves the window untouched. It returns the resulting window and
	// whether the attempt was accepted.
	Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Window, bool, error)
}

// Decision is the result of a limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	Window    time.Duration
}

// RetryAfter is how long the caller should back off; 0 when allowed.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed {
		return 0
	}
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Limiter decides whether a submission from key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// FixedWindow counts accepted attempts per key against Max inside windows
// of length Window that reset, never slide.
type FixedWindow struct {
	store  Store
	window time.Duration
	max    int
	now    func() time.Time
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock overrides the time source; tests use it to move past a window.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) { l.now = now }
}

// NewFixedWindow builds a limiter over store. Non-positive window or max fall
// back to the defaults.
func NewFixedWindow(store Store, window time.Duration, max int, opts ...Option) *FixedWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMax
	}
	l := &FixedWindow{store: store, window: window, max: max, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured maximum per window.
func (l *FixedWindow) Limit() int { return l.max }

// Window returns the configured window length.
func (l *FixedWindow) Window() time.Duration { return l.window }

// Allow consumes one slot for key if one is left.
func (l *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	w, ok, err := l.store.Take(ctx, key, now, l.window, l.max)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return l.decision(w, ok), nil
}

func (l *FixedWindow) decision(w Window, allowed bool) Decision {
	remaining := l.max - w.Count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   w.Start.Add(l.window),
		Window:    l.window,
	}
}

// elapsed reports whether a window started at start is over at now.
func elapsed(start, now time.Time, window time.Duration) bool {
	return !now.Before(start.Add(window))
}
