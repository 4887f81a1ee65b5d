package domain

import (
	"context"
	"errors"
)

// Domain errors represent error conditions in the syslogship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("syslogship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance,
	// or when a record is logged while the dispatcher is not accepting work.
	ErrNotRunning = errors.New("syslogship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("syslogship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("syslogship: invalid configuration")

	// ErrCancelled is returned by transmitters that observed cancellation
	// through a channel other than the context.
	ErrCancelled = errors.New("syslogship: cancelled")

	// ErrBufferBusy is returned when a buffer is checked out while another
	// step still holds it.
	ErrBufferBusy = errors.New("syslogship: buffer already checked out")

	// ErrQueueFull is passed to the completion callback of a record that
	// could not enter the backlog.
	ErrQueueFull = errors.New("syslogship: backlog full")
)

// IsCancellation reports whether a send that failed with err under ctx was
// cancelled rather than faulted. Only the context's own state or an explicit
// ErrCancelled count: a transport error that merely wraps
// context.DeadlineExceeded under a live ctx, such as an http.Client timeout,
// is a fault.
func IsCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, ErrCancelled)
}

// RootCause unwraps err down to the innermost error of its chain. For a
// joined error the first non-nil member is followed.
func RootCause(err error) error {
	for err != nil {
		var next error
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			next = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if e != nil {
					next = e
					break
				}
			}
		}
		if next == nil {
			return err
		}
		err = next
	}
	return err
}
