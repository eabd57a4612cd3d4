// Package window holds per-key counters that live for one fixed time window.
//
// An entry is ACTIVE while now < ResetAt and EXPIRED afterwards. Every
// operation that touches an expired (or missing) key replaces it with a
// zeroed entry whose window starts at now. Expired entries of other keys are
// dropped by a low-probability sweep that piggybacks on regular calls, so no
// background goroutine is needed.
package window

import (
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultSweepProbability is the chance that a call also sweeps expired keys.
const DefaultSweepProbability = 0.01

// Entry is a counter value together with the end of its window.
type Entry[T any] struct {
	Value   T
	ResetAt time.Time
}

// Active reports whether the entry's window is still open at now.
func (e Entry[T]) Active(now time.Time) bool {
	return now.Before(e.ResetAt)
}

// ResetIn is the time left until the window closes, never negative.
func (e Entry[T]) ResetIn(now time.Time) time.Duration {
	return max(e.ResetAt.Sub(now), 0)
}

type Option func(*options)

type options struct {
	sweepProb float64
	rnd       func() float64
}

// WithSweepProbability sets the per-call sweep chance; 0 disables sweeping.
func WithSweepProbability(p float64) Option {
	return func(o *options) { o.sweepProb = p }
}

// WithRand replaces the random source used to decide on sweeping.
func WithRand(rnd func() float64) Option {
	return func(o *options) { o.rnd = rnd }
}

// Store maps keys to entries of one fixed window length. It is safe for
// concurrent use; callbacks run with the store lock held.
type Store[T any] struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*Entry[T]
	opts    options
}

func New[T any](window time.Duration, opts ...Option) *Store[T] {
	o := options{sweepProb: DefaultSweepProbability, rnd: rand.Float64}
	for _, fn := range opts {
		fn(&o)
	}
	return &Store[T]{
		window:  window,
		entries: make(map[string]*Entry[T]),
		opts:    o,
	}
}

// Peek returns a copy of the live entry for key. A missing or expired key
// yields a zeroed entry whose window would start at now; nothing is stored.
func (s *Store[T]) Peek(key string, now time.Time) Entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweepLocked(key, now)

	if e, ok := s.entries[key]; ok && e.Active(now) {
		return *e
	}
	return Entry[T]{ResetAt: now.Add(s.window)}
}

// Update runs fn on the live entry for key, first replacing a missing or
// expired entry with a fresh one. The entry is stored only if fn returns
// true or the entry already existed, so a rejecting fn leaves no trace.
func (s *Store[T]) Update(key string, now time.Time, fn func(e *Entry[T]) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maybeSweepLocked(key, now)

	e, ok := s.entries[key]
	if ok && e.Active(now) {
		fn(e)
		return
	}

	fresh := &Entry[T]{ResetAt: now.Add(s.window)}
	if fn(fresh) {
		s.entries[key] = fresh
	} else if ok {
		delete(s.entries, key)
	}
}

// Len returns the number of stored entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep deletes every expired entry and returns how many were removed.
func (s *Store[T]) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked("", now)
}

func (s *Store[T]) maybeSweepLocked(current string, now time.Time) {
	if s.opts.sweepProb <= 0 || s.opts.rnd() >= s.opts.sweepProb {
		return
	}
	s.sweepLocked(current, now)
}

// sweepLocked skips keep: the caller is about to read or replace it.
func (s *Store[T]) sweepLocked(keep string, now time.Time) int {
	n := 0
	for k, e := range s.entries {
		if k == keep && keep != "" {
			continue
		}
		if !e.Active(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}
