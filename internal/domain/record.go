package domain

import (
	"sync"

	"github.com/google/uuid"
)

// Completion is invoked once a record has been delivered (nil error) or has
// failed (non-nil error). It is never invoked for a cancelled send.
type Completion func(err error)

// Record pairs a LogEvent with its completion callback.
// A Record is the unit of work accepted by the dispatcher.
type Record struct {
	// ID uniquely identifies the record for logging and events.
	ID string

	// Event is the log event to deliver.
	Event LogEvent

	done *completionOnce
}

type completionOnce struct {
	once sync.Once
	fn   Completion
}

// NewRecord creates a Record with a fresh ID. fn may be nil.
func NewRecord(event LogEvent, fn Completion) Record {
	return Record{
		ID:    uuid.NewString(),
		Event: event,
		done:  &completionOnce{fn: fn},
	}
}

// Complete invokes the completion callback. Only the first call has any
// effect; later calls are ignored.
func (r Record) Complete(err error) {
	if r.done == nil {
		return
	}
	r.done.once.Do(func() {
		if r.done.fn != nil {
			r.done.fn(err)
		}
	})
}

// String returns the formatted message of the underlying event.
func (r Record) String() string {
	return r.Event.FormattedMessage()
}
