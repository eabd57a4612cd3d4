package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultWindow      = time.Minute
	DefaultMaxRequests = 10
)

type Policy struct {
	Window      time.Duration // fixed window length
	MaxRequests int           // requests allowed per window
}

// DefaultPolicy is 10 requests per minute.
func DefaultPolicy() Policy {
	return Policy{Window: DefaultWindow, MaxRequests: DefaultMaxRequests}
}

type Decision struct {
	Allowed   bool
	Limit     int           // max requests per window
	Remaining int           // requests left in this window (min 0)
	ResetIn   time.Duration // time until the window closes
	Reset     time.Time     // absolute end of the window
}

// RetryAfterSec rounds ResetIn up to whole seconds for Retry-After headers.
func (d Decision) RetryAfterSec() int64 {
	return ceilSeconds(d.ResetIn)
}

// Limiter decides whether key may issue one more request. Implementations
// backed by a shared store may return an error; the in-memory one never does.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
	Close() error
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
