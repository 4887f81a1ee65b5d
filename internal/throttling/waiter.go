package throttling

import (
	"context"
	"time"
)

// Waiter blocks the calling goroutine for the defer strategies.
type Waiter interface {
	// Wait returns after d has elapsed or ctx is done, whichever comes first.
	Wait(ctx context.Context, d time.Duration)
}

// SleepWaiter parks the goroutine on a timer, releasing its OS thread.
// It is the default.
type SleepWaiter struct{}

func (SleepWaiter) Wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// SpinWaiter busy-waits, keeping the goroutine (and its thread) running for
// the whole delay. Use it when the backlog producer must feel the delay as
// CPU pressure rather than as a descheduled goroutine.
type SpinWaiter struct{}

func (SpinWaiter) Wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
	}
}
