package msgset

import (
	"context"
	"sync"
)

// Outcome is the terminal state of a send.
type Outcome int

const (
	// Pending means the send has not settled yet.
	Pending Outcome = iota
	// Succeeded means every entry was transmitted.
	Succeeded
	// Cancelled means the send observed cancellation; the completion
	// callback was not invoked.
	Cancelled
	// Faulted means a transmission failed; the completion callback received
	// the root cause.
	Faulted
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "Pending"
	case Succeeded:
		return "Succeeded"
	case Cancelled:
		return "Cancelled"
	case Faulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// Future is the settle-once result of SendAsync.
type Future struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
	err     error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// settle records the terminal state. Only the first call has an effect.
func (f *Future) settle(outcome Outcome, err error) {
	f.once.Do(func() {
		f.outcome = outcome
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is done. It returns the
// outcome and, for Faulted, the root cause. If ctx ends first it returns
// Pending and ctx.Err().
func (f *Future) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-f.done:
		return f.outcome, f.err
	case <-ctx.Done():
		return Pending, ctx.Err()
	}
}

// Outcome returns the terminal state, or Pending if not yet settled.
func (f *Future) Outcome() Outcome {
	select {
	case <-f.done:
		return f.outcome
	default:
		return Pending
	}
}

// Err returns the fault for a Faulted future and nil otherwise.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
