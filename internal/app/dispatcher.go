package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/syslogship/internal/backoff"
	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/msgset"
	"github.com/bft-labs/syslogship/internal/ports"
	"github.com/bft-labs/syslogship/internal/throttling"
)

// Discard reasons reported to SendEventEmitter.OnDiscard.
const (
	DiscardThrottled = "throttled"
	DiscardTimeout   = "timeout"
)

// Default dispatcher sizing.
const (
	DefaultQueueSize  = 10000
	DefaultWorkers    = 1
	DefaultBufferSize = 4096
)

// DispatcherConfig contains configuration for the dispatcher.
type DispatcherConfig struct {
	// QueueSize bounds the backlog of records waiting for a worker.
	QueueSize int

	// Workers is the number of records sent concurrently. Each worker owns
	// one buffer.
	Workers int

	// BufferSize is the initial capacity of each worker's buffer.
	BufferSize int

	// BackoffInitial and BackoffMax bound the pause a worker takes after a
	// faulted send.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// SendEventEmitter is notified of the outcome of every record.
type SendEventEmitter interface {
	OnSendSuccess(record domain.Record, messages int, duration time.Duration)
	OnSendError(record domain.Record, err error)
	OnDiscard(record domain.Record, reason string, waiting int)
}

// Dispatcher owns the backlog. Its workers consult the throttling policy
// for every record and drive a MessageSet when the policy lets them proceed.
type Dispatcher struct {
	config      DispatcherConfig
	policy      *throttling.Policy
	builder     ports.MessageBuilder
	layout      ports.Layout
	transmitter ports.Transmitter
	logger      ports.Logger
	emitter     SendEventEmitter

	queue   chan domain.Record
	pending atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher. emitter may be nil.
func NewDispatcher(
	config DispatcherConfig,
	policy *throttling.Policy,
	builder ports.MessageBuilder,
	layout ports.Layout,
	transmitter ports.Transmitter,
	logger ports.Logger,
	emitter SendEventEmitter,
) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	return &Dispatcher{
		config:      config,
		policy:      policy,
		builder:     builder,
		layout:      layout,
		transmitter: transmitter,
		logger:      logger,
		emitter:     emitter,
		queue:       make(chan domain.Record, config.QueueSize),
	}
}

// Enqueue adds record to the backlog without blocking. When the backlog is
// full the record is completed with ErrQueueFull and that error is returned.
// After the dispatcher has stopped it returns ErrNotRunning and leaves the
// record untouched.
func (d *Dispatcher) Enqueue(record domain.Record) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return domain.ErrNotRunning
	}

	d.pending.Add(1)
	select {
	case d.queue <- record:
		return nil
	default:
		d.pending.Add(-1)
		record.Complete(domain.ErrQueueFull)
		return domain.ErrQueueFull
	}
}

// Waiting returns the number of records queued or being sent.
func (d *Dispatcher) Waiting() int {
	return int(d.pending.Load())
}

// Run starts the workers and blocks until ctx is done and every worker has
// returned. Records still queued at that point are dropped without being
// completed, and later calls to Enqueue fail with ErrNotRunning.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.config.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.worker(ctx, id)
		}(i)
	}
	wg.Wait()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	if dropped := d.drain(); dropped > 0 {
		d.logger.Info("dropped queued records on shutdown", ports.Int("records", dropped))
	}
	return ctx.Err()
}

func (d *Dispatcher) drain() int {
	n := 0
	for {
		select {
		case <-d.queue:
			d.pending.Add(-1)
			n++
		default:
			return n
		}
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	buf := domain.NewBuffer(d.config.BufferSize)
	bo := backoff.New(d.config.BackoffInitial, d.config.BackoffMax)

	d.logger.Debug("worker started", ports.Int("worker", id))
	defer d.logger.Debug("worker stopped", ports.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			return
		case record := <-d.queue:
			faulted := d.process(ctx, buf, record)
			d.pending.Add(-1)
			if faulted {
				if err := bo.Wait(ctx); err != nil {
					return
				}
			} else {
				bo.Reset()
			}
		}
	}
}

// process applies the throttling policy to one record and sends it when
// allowed. It reports whether the send faulted.
func (d *Dispatcher) process(ctx context.Context, buf *domain.Buffer, record domain.Record) bool {
	// The policy sees the backlog ahead of this record, not the record itself.
	waiting := d.Waiting() - 1

	proceeded := false
	faulted := false
	d.policy.Apply(ctx, waiting, func(timeout time.Duration) {
		proceeded = true
		faulted = d.send(ctx, buf, record, timeout, waiting)
	})

	if !proceeded {
		d.logger.Warn("discarded record",
			ports.String("record", record.ID),
			ports.String("reason", DiscardThrottled),
			ports.Int("waiting", waiting),
		)
		if d.emitter != nil {
			d.emitter.OnDiscard(record, DiscardThrottled, waiting)
		}
	}
	return faulted
}

// send builds the message set for record and waits for it to settle. A
// positive timeout bounds the whole send; expiry counts as a discard.
func (d *Dispatcher) send(ctx context.Context, buf *domain.Buffer, record domain.Record, timeout time.Duration, waiting int) bool {
	set, err := msgset.New(record, buf, d.builder, d.transmitter).Build(d.layout)
	if err != nil {
		d.fault(record, err)
		return true
	}

	sendCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	future := set.SendAsync(sendCtx)
	<-future.Done()
	duration := time.Since(start)

	switch future.Outcome() {
	case msgset.Succeeded:
		d.logger.Debug("sent record",
			ports.String("record", record.ID),
			ports.Int("messages", set.Len()),
			ports.Duration("duration", duration),
		)
		if d.emitter != nil {
			d.emitter.OnSendSuccess(record, set.Len(), duration)
		}
		return false

	case msgset.Faulted:
		d.fault(record, future.Err())
		return true

	default:
		if ctx.Err() == nil && sendCtx.Err() != nil {
			d.logger.Warn("discarded record",
				ports.String("record", record.ID),
				ports.String("reason", DiscardTimeout),
				ports.Duration("timeout", timeout),
				ports.Int("sent", set.Sent()),
				ports.Int("messages", set.Len()),
			)
			if d.emitter != nil {
				d.emitter.OnDiscard(record, DiscardTimeout, waiting)
			}
			return false
		}
		d.logger.Debug("send cancelled", ports.String("record", record.ID))
		return false
	}
}

func (d *Dispatcher) fault(record domain.Record, err error) {
	// Build failures never reach the message set, so complete them here.
	record.Complete(err)

	d.logger.Error("send failed",
		ports.Err(err),
		ports.String("record", record.ID),
		ports.String("message", record.String()),
	)
	if d.emitter != nil {
		d.emitter.OnSendError(record, err)
	}
}
