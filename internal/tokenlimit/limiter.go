// Package tokenlimit bounds LLM token spend per client key.
//
// A request is admitted in two steps. Check compares a pre-flight estimate
// against the per-request ceilings and against the window totals committed so
// far, without changing anything. After the upstream call returns, Record
// commits the real usage. Totals therefore track what was actually spent,
// while clearly oversized requests never leave the process.
package tokenlimit

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultWindow               = time.Hour
	DefaultMaxInputPerWindow    = 50000
	DefaultMaxOutputPerWindow   = 20000
	DefaultMaxRequestsPerWindow = 30
	DefaultMaxInputPerRequest   = 8000
	DefaultMaxOutputPerRequest  = 2000
)

// Budget holds the ceilings enforced for every key.
type Budget struct {
	Window               time.Duration
	MaxInputPerWindow    int
	MaxOutputPerWindow   int
	MaxRequestsPerWindow int
	MaxInputPerRequest   int
	MaxOutputPerRequest  int
}

func DefaultBudget() Budget {
	return Budget{
		Window:               DefaultWindow,
		MaxInputPerWindow:    DefaultMaxInputPerWindow,
		MaxOutputPerWindow:   DefaultMaxOutputPerWindow,
		MaxRequestsPerWindow: DefaultMaxRequestsPerWindow,
		MaxInputPerRequest:   DefaultMaxInputPerRequest,
		MaxOutputPerRequest:  DefaultMaxOutputPerRequest,
	}
}

// WithDefaults fills every non-positive field from DefaultBudget.
func (b Budget) WithDefaults() Budget {
	d := DefaultBudget()
	if b.Window <= 0 {
		b.Window = d.Window
	}
	if b.MaxInputPerWindow <= 0 {
		b.MaxInputPerWindow = d.MaxInputPerWindow
	}
	if b.MaxOutputPerWindow <= 0 {
		b.MaxOutputPerWindow = d.MaxOutputPerWindow
	}
	if b.MaxRequestsPerWindow <= 0 {
		b.MaxRequestsPerWindow = d.MaxRequestsPerWindow
	}
	if b.MaxInputPerRequest <= 0 {
		b.MaxInputPerRequest = d.MaxInputPerRequest
	}
	if b.MaxOutputPerRequest <= 0 {
		b.MaxOutputPerRequest = d.MaxOutputPerRequest
	}
	return b
}

// Reason names the ceiling that rejected a request.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonRequestInput   Reason = "request_input"
	ReasonRequestOutput  Reason = "request_output"
	ReasonWindowInput    Reason = "window_input"
	ReasonWindowOutput   Reason = "window_output"
	ReasonWindowRequests Reason = "window_requests"
)

// Usage is the committed total of one key within its current window.
type Usage struct {
	InputTokens  int
	OutputTokens int
	RequestCount int
	ResetIn      time.Duration
}

type Decision struct {
	Allowed bool
	Reason  Reason
	Message string

	RemainingInput    int
	RemainingOutput   int
	RemainingRequests int
	ResetIn           time.Duration
}

// RetryAfterSec rounds ResetIn up to whole seconds for Retry-After headers.
func (d Decision) RetryAfterSec() int64 {
	if d.ResetIn <= 0 {
		return 0
	}
	return int64((d.ResetIn + time.Second - 1) / time.Second)
}

// Remaining reports the quota left after the committed usage u.
func (b Budget) Remaining(u Usage) Decision {
	return Decision{
		Allowed:           true,
		RemainingInput:    max(b.MaxInputPerWindow-u.InputTokens, 0),
		RemainingOutput:   max(b.MaxOutputPerWindow-u.OutputTokens, 0),
		RemainingRequests: max(b.MaxRequestsPerWindow-u.RequestCount, 0),
		ResetIn:           u.ResetIn,
	}
}

// Evaluate decides whether one more request of the given size fits next to
// the committed usage u. It is pure; stores call it under their own locking.
func (b Budget) Evaluate(u Usage, inputTokens, outputTokens int) Decision {
	// per-request ceilings do not depend on history; report no quota at all
	if inputTokens > b.MaxInputPerRequest {
		return Decision{
			Reason: ReasonRequestInput,
			Message: fmt.Sprintf("Input is too long. A single request supports about %d tokens (roughly %d CJK characters).",
				b.MaxInputPerRequest, int(float64(b.MaxInputPerRequest)*cjkCharsPerToken)),
		}
	}
	if outputTokens > b.MaxOutputPerRequest {
		return Decision{
			Reason:  ReasonRequestOutput,
			Message: fmt.Sprintf("Requested output is too long. A single request supports about %d output tokens.", b.MaxOutputPerRequest),
		}
	}

	d := b.Remaining(u)
	switch {
	case u.InputTokens+inputTokens > b.MaxInputPerWindow:
		d.Reason = ReasonWindowInput
		d.Message = fmt.Sprintf("Input token quota reached. At most %d input tokens per %s.", b.MaxInputPerWindow, windowName(b.Window))
	case u.OutputTokens+outputTokens > b.MaxOutputPerWindow:
		d.Reason = ReasonWindowOutput
		d.Message = fmt.Sprintf("Output token quota reached. At most %d output tokens per %s.", b.MaxOutputPerWindow, windowName(b.Window))
	case u.RequestCount+1 > b.MaxRequestsPerWindow:
		d.Reason = ReasonWindowRequests
		d.Message = fmt.Sprintf("Request quota reached. At most %d requests per %s.", b.MaxRequestsPerWindow, windowName(b.Window))
	}
	if d.Reason != ReasonNone {
		d.Allowed = false
	}
	return d
}

func windowName(w time.Duration) string {
	switch w {
	case time.Hour:
		return "hour"
	case time.Minute:
		return "minute"
	}
	return w.String()
}

// Limiter tracks token usage per key. Check never commits; Record always does.
type Limiter interface {
	Budget() Budget
	Check(ctx context.Context, key string, inputTokens, outputTokens int, now time.Time) (Decision, error)
	Record(ctx context.Context, key string, inputTokens, outputTokens int, now time.Time) error
	Usage(ctx context.Context, key string, now time.Time) (Usage, error)
	Close() error
}
