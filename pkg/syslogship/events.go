package syslogship

import "time"

// State represents the lifecycle state of a Shipper.
type State int

const (
	// StateStopped means the shipper is not running.
	StateStopped State = iota
	// StateStarting means Start is initializing plugins and workers.
	StateStarting
	// StateRunning means records are being accepted and sent.
	StateRunning
	// StateStopping means Stop is waiting for in-flight sends.
	StateStopping
	// StateCrashed means the shipper stopped because of an error.
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

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SendSuccessEvent is emitted after every message of a record was sent.
type SendSuccessEvent struct {
	RecordID string
	Messages int
	Duration time.Duration
}

// SendErrorEvent is emitted when a record could not be sent.
type SendErrorEvent struct {
	RecordID string
	Error    error
}

// DiscardEvent is emitted when throttling drops a record. Reason is
// "throttled" for the discard strategy and "timeout" when a discard-on-
// timeout bound expired.
type DiscardEvent struct {
	RecordID string
	Reason   string
	Waiting  int
}

// EventHandler receives shipper events. Handlers are called synchronously
// from worker goroutines and should return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnSendSuccess(SendSuccessEvent)
	OnSendError(SendErrorEvent)
	OnDiscard(DiscardEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only the events you need.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnSendSuccess(SendSuccessEvent) {}
func (BaseEventHandler) OnSendError(SendErrorEvent)     {}
func (BaseEventHandler) OnDiscard(DiscardEvent)         {}
