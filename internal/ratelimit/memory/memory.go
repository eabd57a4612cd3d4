package memory

import (
	"context"
	"time"

	"github.com/AlexKimmel/prayerlite/internal/ratelimit"
	"github.com/AlexKimmel/prayerlite/internal/window"
)

type counter struct {
	count int
}

// Limiter is a fixed-window request counter held in process memory. Each
// instance keeps its own counts; several replicas multiply the ceiling.
type Limiter struct {
	policy ratelimit.Policy
	store  *window.Store[counter]
}

func New(p ratelimit.Policy, opts ...window.Option) *Limiter {
	if p.Window <= 0 {
		p.Window = ratelimit.DefaultWindow
	}
	if p.MaxRequests <= 0 {
		p.MaxRequests = ratelimit.DefaultMaxRequests
	}
	return &Limiter{
		policy: p,
		store:  window.New[counter](p.Window, opts...),
	}
}

func (l *Limiter) Close() error { return nil }

func (l *Limiter) Policy() ratelimit.Policy { return l.policy }

func (l *Limiter) Allow(_ context.Context, key string, now time.Time) (ratelimit.Decision, error) {
	dec := ratelimit.Decision{Limit: l.policy.MaxRequests}

	l.store.Update(key, now, func(e *window.Entry[counter]) bool {
		dec.Reset = e.ResetAt
		dec.ResetIn = e.ResetIn(now)

		// rejected attempts do not count against the window
		if e.Value.count >= l.policy.MaxRequests {
			dec.Remaining = 0
			return false
		}

		e.Value.count++
		dec.Allowed = true
		dec.Remaining = l.policy.MaxRequests - e.Value.count
		return true
	})

	return dec, nil
}
