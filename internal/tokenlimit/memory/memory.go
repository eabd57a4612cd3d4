package memory

import (
	"context"
	"time"

	"github.com/AlexKimmel/prayerlite/internal/tokenlimit"
	"github.com/AlexKimmel/prayerlite/internal/window"
)

type totals struct {
	input    int
	output   int
	requests int
}

// Limiter keeps token totals per key in process memory.
type Limiter struct {
	budget tokenlimit.Budget
	store  *window.Store[totals]
}

func New(b tokenlimit.Budget, opts ...window.Option) *Limiter {
	b = b.WithDefaults()
	return &Limiter{
		budget: b,
		store:  window.New[totals](b.Window, opts...),
	}
}

func (l *Limiter) Close() error { return nil }

func (l *Limiter) Budget() tokenlimit.Budget { return l.budget }

func (l *Limiter) Check(_ context.Context, key string, inputTokens, outputTokens int, now time.Time) (tokenlimit.Decision, error) {
	if inputTokens > l.budget.MaxInputPerRequest || outputTokens > l.budget.MaxOutputPerRequest {
		return l.budget.Evaluate(tokenlimit.Usage{}, inputTokens, outputTokens), nil
	}
	return l.budget.Evaluate(l.usage(key, now), inputTokens, outputTokens), nil
}

func (l *Limiter) Record(_ context.Context, key string, inputTokens, outputTokens int, now time.Time) error {
	l.store.Update(key, now, func(e *window.Entry[totals]) bool {
		e.Value.input += max(inputTokens, 0)
		e.Value.output += max(outputTokens, 0)
		e.Value.requests++
		return true
	})
	return nil
}

func (l *Limiter) Usage(_ context.Context, key string, now time.Time) (tokenlimit.Usage, error) {
	return l.usage(key, now), nil
}

func (l *Limiter) usage(key string, now time.Time) tokenlimit.Usage {
	e := l.store.Peek(key, now)
	return tokenlimit.Usage{
		InputTokens:  e.Value.input,
		OutputTokens: e.Value.output,
		RequestCount: e.Value.requests,
		ResetIn:      e.ResetIn(now),
	}
}
