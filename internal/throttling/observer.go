package throttling

import (
	"time"

	"github.com/bft-labs/syslogship/internal/ports"
)

// Observer is notified whenever a throttling strategy takes effect.
// Calls happen synchronously on the goroutine that called Apply.
type Observer interface {
	// OnDiscard is called when work is dropped by the Discard strategy.
	OnDiscard(waiting int)

	// OnDefer is called before the caller is blocked for delay.
	OnDefer(waiting int, delay time.Duration)

	// OnTimeout is called when the send is bounded by timeout.
	OnTimeout(waiting int, timeout time.Duration)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) OnDiscard(int)                {}
func (NopObserver) OnDefer(int, time.Duration)   {}
func (NopObserver) OnTimeout(int, time.Duration) {}

// LoggerObserver reports throttling decisions as warnings.
type LoggerObserver struct {
	logger ports.Logger
}

// NewLoggerObserver creates an Observer that logs through logger.
func NewLoggerObserver(logger ports.Logger) *LoggerObserver {
	return &LoggerObserver{logger: logger}
}

func (o *LoggerObserver) OnDiscard(waiting int) {
	o.logger.Warn("applied discard throttling strategy", ports.Int("waiting", waiting))
}

func (o *LoggerObserver) OnDefer(waiting int, delay time.Duration) {
	o.logger.Warn("applying defer throttling strategy",
		ports.Int("waiting", waiting),
		ports.Duration("delay", delay),
	)
}

func (o *LoggerObserver) OnTimeout(waiting int, timeout time.Duration) {
	o.logger.Warn("applying timeout throttling strategy",
		ports.Int("waiting", waiting),
		ports.Duration("timeout", timeout),
	)
}
