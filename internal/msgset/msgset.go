// Package msgset drives the transmission of one log record.
//
// A MessageSet renders its record into an ordered list of entries and sends
// them one after another through a Transmitter, reusing a single Buffer for
// every wire message. The record's completion callback is invoked exactly
// once unless the send is cancelled, in which case it is never invoked.
package msgset

import (
	"context"
	"fmt"

	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
)

// MessageSet is the per-record unit of transmission. It is built once,
// sent once and then discarded.
type MessageSet struct {
	record      domain.Record
	buffer      *domain.Buffer
	builder     ports.MessageBuilder
	transmitter ports.Transmitter

	entries []string
	current int
}

// New creates a MessageSet for record. buffer is shared with other message
// sets of the same owner but is only touched while checked out.
func New(record domain.Record, buffer *domain.Buffer, builder ports.MessageBuilder, transmitter ports.Transmitter) *MessageSet {
	return &MessageSet{
		record:      record,
		buffer:      buffer,
		builder:     builder,
		transmitter: transmitter,
	}
}

// Build renders the record with layout into its wire entries.
func (m *MessageSet) Build(layout ports.Layout) (*MessageSet, error) {
	entries, err := m.builder.BuildLogEntries(m.record.Event, layout)
	if err != nil {
		return nil, fmt.Errorf("build log entries: %w", err)
	}
	m.entries = entries
	return m, nil
}

// Len returns the number of entries produced by Build.
func (m *MessageSet) Len() int {
	return len(m.entries)
}

// Sent returns the number of entries handed to the transmitter so far.
func (m *MessageSet) Sent() int {
	return m.current
}

// SendAsync transmits the remaining entries in order on a new goroutine and
// returns a Future that settles when the send is finished.
func (m *MessageSet) SendAsync(ctx context.Context) *Future {
	f := newFuture()
	go m.run(ctx, f)
	return f
}

// Send is the synchronous form of SendAsync.
func (m *MessageSet) Send(ctx context.Context) (Outcome, error) {
	f := newFuture()
	m.run(ctx, f)
	return f.outcome, f.err
}

// run is the send loop. Each iteration is one step of the state machine
// Sending(k) -> {Sending(k+1), Succeeded, Cancelled, Faulted}.
func (m *MessageSet) run(ctx context.Context, f *Future) {
	for {
		if ctx.Err() != nil {
			f.settle(Cancelled, nil)
			return
		}

		if m.allSent() {
			m.record.Complete(nil)
			f.settle(Succeeded, nil)
			return
		}

		err := m.step(ctx)
		if err == nil {
			continue
		}
		if domain.IsCancellation(ctx, err) {
			f.settle(Cancelled, nil)
			return
		}
		root := domain.RootCause(err)
		m.record.Complete(root)
		f.settle(Faulted, root)
		return
	}
}

// step frames the entry at the cursor into the buffer and transmits it.
// The buffer is held for the duration of the step only.
func (m *MessageSet) step(ctx context.Context) error {
	if err := m.buffer.Acquire(); err != nil {
		return err
	}
	defer m.buffer.Release()

	entry := m.entries[m.current]
	m.current++
	if err := m.builder.PrepareMessage(m.buffer, m.record.Event, entry); err != nil {
		return fmt.Errorf("prepare message: %w", err)
	}
	return m.transmitter.Send(ctx, m.buffer.Bytes())
}

func (m *MessageSet) allSent() bool {
	return m.current == len(m.entries)
}

// String returns the formatted message of the record.
func (m *MessageSet) String() string {
	return m.record.String()
}
