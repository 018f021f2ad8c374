package queue

import (
	"math/rand"
	"time"
)

// Scheduler defers a re-push without blocking the caller. The
// production implementation wraps time.AfterFunc; tests inject a
// synchronous fake to make retry timing deterministic.
type Scheduler interface {
	// After runs fn once d has elapsed. Fire-and-forget: the item's
	// position relative to other concurrent pushes is only "appended
	// after the delay elapses".
	After(d time.Duration, fn func())
}

// Window is a uniform random delay range for scheduled re-pushes.
type Window struct {
	Min time.Duration
	Max time.Duration
}

// Next draws a delay in [Min, Max].
func (w Window) Next() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int63n(int64(w.Max-w.Min)+1))
}

type timerScheduler struct{}

// NewScheduler returns the timer-backed Scheduler used in production.
func NewScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
