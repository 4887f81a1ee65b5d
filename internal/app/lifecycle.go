package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for in-flight sends on stop.
const ShutdownTimeout = 30 * time.Second

// State represents the lifecycle state of a shipper.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// transition lists the states reachable from a state and the error returned
// for any other target.
type transition struct {
	next   []State
	reject error
}

var transitions = map[State]transition{
	StateStopped:  {next: []State{StateStarting}, reject: domain.ErrNotRunning},
	StateStarting: {next: []State{StateRunning, StateStopping, StateCrashed}, reject: domain.ErrAlreadyRunning},
	StateRunning:  {next: []State{StateStopping, StateCrashed}, reject: domain.ErrAlreadyRunning},
	StateStopping: {next: []State{StateStopped, StateCrashed}, reject: domain.ErrAlreadyRunning},
	StateCrashed:  {next: []State{StateStarting}, reject: domain.ErrNotRunning},
}

func (t transition) allows(s State) bool {
	for _, n := range t.next {
		if n == s {
			return true
		}
	}
	return false
}

// Lifecycle guards the start/stop state machine and tracks the goroutines
// started for a run.
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates a lifecycle in StateStopped.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateStopped,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to newState if the state machine allows it. The state
// is left unchanged on error.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if t := transitions[oldState]; !t.allows(newState) {
		l.mu.Unlock()
		return t.reject
	}
	l.state = newState
	l.mu.Unlock()

	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}

// CanStart returns true if Start() can be called.
func (l *Lifecycle) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateStopped || l.state == StateCrashed
}

// CanStop returns true if Stop() can be called.
func (l *Lifecycle) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning || l.state == StateStarting
}

// IsRunning reports whether the lifecycle is in StateRunning.
func (l *Lifecycle) IsRunning() bool {
	return l.State() == StateRunning
}

// SetCancel stores the cancel function of the current run.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel cancels the current run, if any.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Go runs fn on a tracked goroutine.
func (l *Lifecycle) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// WaitWithTimeout waits for every goroutine started with Go. It returns
// ErrShutdownTimeout if they are still running after timeout.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-done:
		return nil
	case <-t.C:
		l.logger.Warn("shutdown timeout, abandoning in-flight sends",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
