package ports

import "context"

// Transmitter sends framed messages over the transport.
//
// Send is an atomic operation per message: it returns nil once the payload
// has been handed to the transport, a cancellation error (context.Canceled,
// context.DeadlineExceeded or domain.ErrCancelled) when ctx ends first, or
// any other error on failure. Reconnecting is the transmitter's own concern.
// The payload slice is only valid for the duration of the call.
type Transmitter interface {
	Send(ctx context.Context, payload []byte) error
	Close() error
}
