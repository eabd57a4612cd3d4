package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func alwaysSweep() Option { return WithRand(func() float64 { return 0 }) }

func TestPeekMissingKeyStoresNothing(t *testing.T) {
	s := New[int](time.Minute, WithSweepProbability(0))

	e := s.Peek("a", t0)
	assert.Equal(t, 0, e.Value)
	assert.Equal(t, t0.Add(time.Minute), e.ResetAt)
	assert.Equal(t, time.Minute, e.ResetIn(t0))
	assert.Equal(t, 0, s.Len())
}

func TestUpdateCreatesAndAccumulates(t *testing.T) {
	s := New[int](time.Minute, WithSweepProbability(0))

	inc := func(e *Entry[int]) bool { e.Value++; return true }
	s.Update("a", t0, inc)
	s.Update("a", t0.Add(10*time.Second), inc)

	e := s.Peek("a", t0.Add(20*time.Second))
	assert.Equal(t, 2, e.Value)
	assert.Equal(t, t0.Add(time.Minute), e.ResetAt, "window must not slide on update")
}

func TestUpdateReplacesExpiredEntry(t *testing.T) {
	s := New[int](time.Minute, WithSweepProbability(0))
	inc := func(e *Entry[int]) bool { e.Value++; return true }

	s.Update("a", t0, inc)
	s.Update("a", t0, inc)

	// now == resetAt counts as expired
	later := t0.Add(time.Minute)
	s.Update("a", later, inc)

	e := s.Peek("a", later)
	assert.Equal(t, 1, e.Value)
	assert.Equal(t, later.Add(time.Minute), e.ResetAt)
}

func TestUpdateRejectedFreshEntryIsNotStored(t *testing.T) {
	s := New[int](time.Minute, WithSweepProbability(0))

	s.Update("a", t0, func(e *Entry[int]) bool { return false })
	assert.Equal(t, 0, s.Len())
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s := New[int](time.Minute, WithSweepProbability(0))
	inc := func(e *Entry[int]) bool { e.Value++; return true }

	s.Update("old", t0, inc)
	s.Update("new", t0.Add(45*time.Second), inc)

	n := s.Sweep(t0.Add(90 * time.Second))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.Peek("new", t0.Add(90*time.Second)).Value)
}

func TestOpportunisticSweepKeepsCurrentKey(t *testing.T) {
	s := New[int](time.Minute, alwaysSweep())
	inc := func(e *Entry[int]) bool { e.Value++; return true }

	s.Update("a", t0, inc)
	s.Update("b", t0, inc)
	s.Update("c", t0.Add(30*time.Second), inc)

	// "a" and "b" are expired; the sweep runs inside this call but must leave
	// "a" for the update itself to replace.
	now := t0.Add(70 * time.Second)
	var seen int
	s.Update("a", now, func(e *Entry[int]) bool {
		seen = e.Value
		e.Value++
		return true
	})

	assert.Equal(t, 0, seen, "expired entry is replaced with a zeroed one")
	require.Equal(t, 2, s.Len(), "b swept, a and c remain")
	assert.Equal(t, 1, s.Peek("a", now).Value)
	assert.Equal(t, 1, s.Peek("c", now).Value)
}

func TestSweepDisabled(t *testing.T) {
	s := New[int](time.Minute, WithSweepProbability(0), alwaysSweep())
	inc := func(e *Entry[int]) bool { e.Value++; return true }

	s.Update("a", t0, inc)
	s.Update("b", t0.Add(2*time.Minute), inc)
	assert.Equal(t, 2, s.Len())
}

func TestResetInNeverNegative(t *testing.T) {
	e := Entry[int]{ResetAt: t0}
	assert.Equal(t, time.Duration(0), e.ResetIn(t0.Add(time.Second)))
	assert.False(t, e.Active(t0))
}
