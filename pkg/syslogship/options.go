package syslogship

import (
	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
	"github.com/bft-labs/syslogship/internal/throttling"
	"github.com/bft-labs/syslogship/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Extension points. Implement these to replace the built-in rendering,
// framing or transport.
type (
	// Layout renders an event into text.
	Layout = ports.Layout

	// MessageBuilder splits rendered text into entries and frames them.
	MessageBuilder = ports.MessageBuilder

	// Transmitter delivers one framed message.
	Transmitter = ports.Transmitter

	// Buffer is the reusable byte region a MessageBuilder frames into.
	Buffer = domain.Buffer

	// Waiter blocks a worker for the defer throttling strategies.
	Waiter = throttling.Waiter
)

// Option configures optional behavior of a Shipper.
type Option func(*options)

type options struct {
	logger       Logger
	transmitter  Transmitter
	builder      MessageBuilder
	layout       Layout
	eventHandler EventHandler
	waiter       Waiter
	plugins      []Plugin
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransmitter replaces the transport built from Config.Transport. The
// shipper does not close an injected transmitter.
func WithTransmitter(t Transmitter) Option {
	return func(o *options) {
		o.transmitter = t
	}
}

// WithMessageBuilder replaces the RFC 5424/3164 builder selected by
// Config.RFC.
func WithMessageBuilder(b MessageBuilder) Option {
	return func(o *options) {
		o.builder = b
	}
}

// WithLayout replaces the template layout from Config.Layout.
func WithLayout(l Layout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithEventHandler sets a handler for shipper events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithWaiter replaces the waiter used by the defer throttling strategies.
// It takes precedence over ThrottlingConfig.SpinWait.
func WithWaiter(w Waiter) Option {
	return func(o *options) {
		o.waiter = w
	}
}

// WithPlugin registers a plugin to be initialized when the shipper starts.
// Plugins are initialized in registration order and shut down in reverse
// order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
