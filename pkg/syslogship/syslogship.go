package syslogship

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/syslogship/internal/adapters/builder"
	"github.com/bft-labs/syslogship/internal/adapters/transport"
	"github.com/bft-labs/syslogship/internal/app"
	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
	"github.com/bft-labs/syslogship/internal/throttling"
	"github.com/bft-labs/syslogship/pkg/log"
)

// Re-exported event types.
type (
	LogEvent   = domain.LogEvent
	Severity   = domain.Severity
	Facility   = domain.Facility
	Completion = domain.Completion
)

// Severities, most severe first.
const (
	SeverityEmergency     = domain.SeverityEmergency
	SeverityAlert         = domain.SeverityAlert
	SeverityCritical      = domain.SeverityCritical
	SeverityError         = domain.SeverityError
	SeverityWarning       = domain.SeverityWarning
	SeverityNotice        = domain.SeverityNotice
	SeverityInformational = domain.SeverityInformational
	SeverityDebug         = domain.SeverityDebug
)

// Errors returned by Shipper methods.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrQueueFull       = domain.ErrQueueFull
)

// Shipper delivers log events to a syslog receiver. Use New to create one,
// Start to begin accepting records and Stop to shut it down.
type Shipper struct {
	config   Config
	opts     options
	logger   ports.Logger
	facility domain.Facility
	severity domain.Severity

	lifecycle *app.Lifecycle
	policy    *throttling.Policy
	waiter    *switchWaiter
	builder   ports.MessageBuilder
	layout    ports.Layout
	emitter   *eventEmitterWrapper

	plugins []Plugin

	mu          sync.RWMutex
	dispatcher  *app.Dispatcher
	transmitter ports.Transmitter
	ownsTx      bool
	cancel      context.CancelFunc
}

// New creates a Shipper in StateStopped. It returns an error wrapping
// ErrInvalidConfig if cfg is invalid.
func New(cfg Config, opts ...Option) (*Shipper, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger = log.NewNoopLogger()
	if o.logger != nil {
		logger = o.logger
	}

	policyCfg, err := cfg.Throttling.policyConfig()
	if err != nil {
		return nil, err
	}
	sw := &switchWaiter{}
	sw.spin.Store(cfg.Throttling.SpinWait)
	var waiter throttling.Waiter = sw
	if o.waiter != nil {
		waiter = o.waiter
	}
	policy := throttling.New(policyCfg,
		throttling.WithObserver(throttling.NewLoggerObserver(logger)),
		throttling.WithWaiter(waiter),
	)

	mb := o.builder
	if mb == nil {
		mb, err = builder.New(builder.RFC(cfg.RFC), builder.Config{
			SplitOnNewLine: cfg.SplitOnNewLine,
			MaxLength:      cfg.MaxLength,
			UseBOM:         cfg.UseBOM,
			Hostname:       cfg.Hostname,
			AppName:        cfg.AppName,
		})
		if err != nil {
			return nil, err
		}
	}

	layout := o.layout
	if layout == nil {
		tl, err := builder.NewTemplateLayout(cfg.Layout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
		layout = tl
	}

	facility, _ := domain.ParseFacility(cfg.Facility)
	severity, _ := domain.ParseSeverity(cfg.Severity)

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	return &Shipper{
		config:    cfg,
		opts:      o,
		logger:    logger,
		facility:  facility,
		severity:  severity,
		lifecycle: app.NewLifecycle(logger, emitter),
		policy:    policy,
		waiter:    sw,
		builder:   mb,
		layout:    layout,
		emitter:   emitter,
		plugins:   o.plugins,
	}, nil
}

// Start begins accepting records and sending them in the background. It
// returns once plugins are initialized. ctx bounds the lifetime of the run.
func (s *Shipper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	tx := s.opts.transmitter
	s.ownsTx = false
	if tx == nil {
		var err error
		tx, err = transport.New(s.config.Transport.internal(), s.logger)
		if err != nil {
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "transport: "+err.Error())
			return err
		}
		s.ownsTx = true
	}
	s.transmitter = tx

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		ConfigPath: s.config.ConfigPath,
		Logger:     s.logger,
		Throttling: s,
	}
	for _, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			s.closeTransmitter()
			_ = s.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		s.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	s.dispatcher = app.NewDispatcher(app.DispatcherConfig{
		QueueSize: s.config.QueueSize,
		Workers:   s.config.Workers,
	}, s.policy, s.builder, s.layout, tx, s.logger, s.emitter)

	dispatcher := s.dispatcher
	s.lifecycle.Go(func() {
		if err := s.lifecycle.TransitionTo(app.StateRunning, "dispatcher starting"); err != nil {
			s.logger.Error("failed to transition to running", ports.Err(err))
			return
		}
		if err := dispatcher.Run(runCtx); err != nil && err != context.Canceled {
			s.logger.Error("dispatcher error", ports.Err(err))
			_ = s.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// Stop cancels the run and waits up to app.ShutdownTimeout for in-flight
// sends. Records still queued are dropped without completion. It returns
// ErrShutdownTimeout if the wait expires.
func (s *Shipper) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	shutdownCtx := context.Background()
	for i := len(s.plugins) - 1; i >= 0; i-- {
		p := s.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
		} else {
			s.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}

	s.mu.Lock()
	s.closeTransmitter()
	s.mu.Unlock()

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}

	return err
}

// closeTransmitter closes a transmitter built by Start. Callers hold s.mu.
func (s *Shipper) closeTransmitter() {
	if s.transmitter == nil || !s.ownsTx {
		return
	}
	if err := s.transmitter.Close(); err != nil {
		s.logger.Warn("closing transport", ports.Err(err))
	}
	s.transmitter = nil
}

// Status returns the current lifecycle state.
func (s *Shipper) Status() State {
	return convertState(s.lifecycle.State())
}

// Log queues event for delivery. completion, which may be nil, is called
// once with nil after every message of the event was sent, or with the
// error that stopped delivery. It is not called for events dropped by
// throttling or by shutdown. Log fails with ErrNotRunning unless the
// shipper is starting or running, and with ErrQueueFull (after calling
// completion with it) when the backlog is full.
func (s *Shipper) Log(event LogEvent, completion Completion) error {
	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()

	state := s.lifecycle.State()
	if d == nil || (state != app.StateRunning && state != app.StateStarting) {
		return domain.ErrNotRunning
	}
	return d.Enqueue(domain.NewRecord(event, completion))
}

// NewEvent returns an event stamped with the current time and the
// configured facility, app name and hostname. A negative severity selects
// the configured default.
func (s *Shipper) NewEvent(severity Severity, message string) LogEvent {
	if severity < 0 {
		severity = s.severity
	}
	return LogEvent{
		Timestamp: time.Now(),
		Severity:  severity,
		Facility:  s.facility,
		Hostname:  s.config.Hostname,
		AppName:   s.config.AppName,
		Message:   message,
	}
}

// Waiting returns the number of records queued or being sent.
func (s *Shipper) Waiting() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dispatcher == nil {
		return 0
	}
	return s.dispatcher.Waiting()
}

// SetThrottling replaces the throttling policy. It takes effect for the
// next record a worker picks up.
func (s *Shipper) SetThrottling(cfg ThrottlingConfig) error {
	policyCfg, err := cfg.policyConfig()
	if err != nil {
		return err
	}
	s.policy.Update(policyCfg)
	s.waiter.spin.Store(cfg.SpinWait)

	s.logger.Info("throttling updated",
		ports.Int("limit", policyCfg.Limit),
		ports.Stringer("strategy", policyCfg.Strategy),
		ports.String("delay", policyCfg.Delay.String()),
		ports.Bool("spin_wait", cfg.SpinWait),
	)
	return nil
}

// Throttling returns the active, normalized throttling policy.
func (s *Shipper) Throttling() ThrottlingConfig {
	return throttlingConfigFrom(s.policy.Config(), s.waiter.spin.Load())
}

// switchWaiter sleeps or spins depending on the current SpinWait setting.
type switchWaiter struct {
	spin atomic.Bool
}

func (w *switchWaiter) Wait(ctx context.Context, d time.Duration) {
	if w.spin.Load() {
		throttling.SpinWaiter{}.Wait(ctx, d)
		return
	}
	throttling.SleepWaiter{}.Wait(ctx, d)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnSendSuccess(record domain.Record, messages int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendSuccess(SendSuccessEvent{
		RecordID: record.ID,
		Messages: messages,
		Duration: duration,
	})
}

func (e *eventEmitterWrapper) OnSendError(record domain.Record, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnSendError(SendErrorEvent{
		RecordID: record.ID,
		Error:    err,
	})
}

func (e *eventEmitterWrapper) OnDiscard(record domain.Record, reason string, waiting int) {
	if e.handler == nil {
		return
	}
	e.handler.OnDiscard(DiscardEvent{
		RecordID: record.ID,
		Reason:   reason,
		Waiting:  waiting,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
