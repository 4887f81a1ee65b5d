package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

type stateChange struct {
	from, to State
	reason   string
}

// stateRecorder captures every emitted state change.
type stateRecorder struct {
	mu      sync.Mutex
	changes []stateChange
}

func (r *stateRecorder) OnStateChange(previous, current State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, stateChange{previous, current, reason})
}

func (r *stateRecorder) Changes() []stateChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stateChange(nil), r.changes...)
}

var allStates = []State{StateStopped, StateStarting, StateRunning, StateStopping, StateCrashed}

// lifecycleAt returns a lifecycle already parked in state.
func lifecycleAt(state State, emitter EventEmitter) *Lifecycle {
	l := NewLifecycle(mockLogger{}, emitter)
	l.state = state
	return l
}

func TestState_String(t *testing.T) {
	for state, want := range map[State]string{
		StateStopped:  "Stopped",
		StateStarting: "Starting",
		StateRunning:  "Running",
		StateStopping: "Stopping",
		StateCrashed:  "Crashed",
		State(42):     "Unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}

// Every (from, to) pair is checked: the allowed edges move the state and
// emit one change, the rest leave the state alone and return the rejection
// error of the source state.
func TestLifecycle_TransitionMatrix(t *testing.T) {
	allowed := map[State][]State{
		StateStopped:  {StateStarting},
		StateStarting: {StateRunning, StateStopping, StateCrashed},
		StateRunning:  {StateStopping, StateCrashed},
		StateStopping: {StateStopped, StateCrashed},
		StateCrashed:  {StateStarting},
	}
	rejectWith := map[State]error{
		StateStopped:  domain.ErrNotRunning,
		StateStarting: domain.ErrAlreadyRunning,
		StateRunning:  domain.ErrAlreadyRunning,
		StateStopping: domain.ErrAlreadyRunning,
		StateCrashed:  domain.ErrNotRunning,
	}

	for _, from := range allStates {
		for _, to := range allStates {
			ok := false
			for _, s := range allowed[from] {
				ok = ok || s == to
			}

			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				rec := &stateRecorder{}
				l := lifecycleAt(from, rec)

				err := l.TransitionTo(to, "matrix")
				changes := rec.Changes()

				if ok {
					if err != nil {
						t.Fatalf("TransitionTo() = %v, want nil", err)
					}
					if l.State() != to {
						t.Errorf("state = %v, want %v", l.State(), to)
					}
					if len(changes) != 1 || changes[0] != (stateChange{from, to, "matrix"}) {
						t.Errorf("changes = %+v", changes)
					}
					return
				}

				if !errors.Is(err, rejectWith[from]) {
					t.Errorf("TransitionTo() = %v, want %v", err, rejectWith[from])
				}
				if l.State() != from {
					t.Errorf("state = %v, want unchanged %v", l.State(), from)
				}
				if len(changes) != 0 {
					t.Errorf("rejected transition emitted %+v", changes)
				}
			})
		}
	}
}

// A stop that arrives while plugins are still initializing takes the
// Starting->Stopping edge without ever reaching Running.
func TestLifecycle_StopDuringStartup(t *testing.T) {
	rec := &stateRecorder{}
	l := NewLifecycle(mockLogger{}, rec)

	steps := []struct {
		to     State
		reason string
	}{
		{StateStarting, "start requested"},
		{StateStopping, "stop requested"},
		{StateStopped, "stopped"},
	}
	for _, s := range steps {
		if err := l.TransitionTo(s.to, s.reason); err != nil {
			t.Fatalf("TransitionTo(%v) = %v", s.to, err)
		}
	}

	want := []stateChange{
		{StateStopped, StateStarting, "start requested"},
		{StateStarting, StateStopping, "stop requested"},
		{StateStopping, StateStopped, "stopped"},
	}
	got := rec.Changes()
	if len(got) != len(want) {
		t.Fatalf("changes = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if !l.CanStart() {
		t.Error("CanStart() = false after returning to Stopped")
	}
}

func TestLifecycle_Predicates(t *testing.T) {
	tests := []struct {
		state                    State
		canStart, canStop, isRun bool
	}{
		{StateStopped, true, false, false},
		{StateStarting, false, true, false},
		{StateRunning, false, true, true},
		{StateStopping, false, false, false},
		{StateCrashed, true, false, false},
	}
	for _, tt := range tests {
		l := lifecycleAt(tt.state, nil)
		if l.CanStart() != tt.canStart || l.CanStop() != tt.canStop || l.IsRunning() != tt.isRun {
			t.Errorf("%v: CanStart=%v CanStop=%v IsRunning=%v, want %v %v %v",
				tt.state, l.CanStart(), l.CanStop(), l.IsRunning(),
				tt.canStart, tt.canStop, tt.isRun)
		}
	}
}

func TestLifecycle_NilEmitter(t *testing.T) {
	l := NewLifecycle(mockLogger{}, nil)
	if err := l.TransitionTo(StateStarting, "start"); err != nil {
		t.Fatalf("TransitionTo() = %v", err)
	}
	if l.State() != StateStarting {
		t.Errorf("state = %v, want Starting", l.State())
	}
}

func TestLifecycle_GoAndWait(t *testing.T) {
	l := NewLifecycle(mockLogger{}, nil)
	release := make(chan struct{})
	var finished atomic.Int32

	for i := 0; i < 3; i++ {
		l.Go(func() {
			<-release
			finished.Add(1)
		})
	}

	if err := l.WaitWithTimeout(20 * time.Millisecond); !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Fatalf("WaitWithTimeout() with blocked work = %v, want ErrShutdownTimeout", err)
	}

	close(release)
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v, want nil", err)
	}
	if n := finished.Load(); n != 3 {
		t.Errorf("finished = %d, want 3", n)
	}

	// Nothing tracked: returns at once.
	if err := NewLifecycle(mockLogger{}, nil).WaitWithTimeout(time.Millisecond); err != nil {
		t.Errorf("WaitWithTimeout() on idle lifecycle = %v", err)
	}
}

func TestLifecycle_Cancel(t *testing.T) {
	l := NewLifecycle(mockLogger{}, nil)
	l.Cancel() // no run yet

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)
	l.Cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Cancel() did not cancel the stored context")
	}
}
