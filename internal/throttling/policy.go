// Package throttling decides how the send pipeline reacts to backlog pressure.
//
// A Policy is consulted once per record with the current backlog depth. It
// either lets the send proceed immediately, proceeds after blocking the
// caller (defer strategies), proceeds with a bounded timeout (discard-on-
// timeout strategies), or drops the record (discard).
package throttling

import (
	"context"
	"sync/atomic"
	"time"
)

// Policy applies a throttling Config. It is safe for concurrent use; the
// configuration can be swapped at runtime with Update.
type Policy struct {
	cfg      atomic.Pointer[Config]
	observer Observer
	waiter   Waiter
}

// Option configures a Policy.
type Option func(*Policy)

// WithObserver sets the Observer notified of throttling decisions.
func WithObserver(o Observer) Option {
	return func(p *Policy) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithWaiter sets the Waiter used by the defer strategies.
func WithWaiter(w Waiter) Option {
	return func(p *Policy) {
		if w != nil {
			p.waiter = w
		}
	}
}

// New creates a Policy. cfg is normalized with EnsureAllowedValues.
func New(cfg Config, opts ...Option) *Policy {
	p := &Policy{
		observer: NopObserver{},
		waiter:   SleepWaiter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Update(cfg)
	return p
}

// Update normalizes cfg and makes it the active configuration.
func (p *Policy) Update(cfg Config) {
	cfg.EnsureAllowedValues()
	p.cfg.Store(&cfg)
}

// Config returns a snapshot of the active configuration.
func (p *Policy) Config() Config {
	return *p.cfg.Load()
}

// Apply decides whether and how the caller may proceed with a send while
// waiting records are queued. proceed receives the timeout that must bound
// the send: 0 when throttling is inactive, Infinite after a deferment, or
// the computed timeout for the discard-on-timeout strategies. proceed is not
// called at all when the record is discarded.
func (p *Policy) Apply(ctx context.Context, waiting int, proceed func(timeout time.Duration)) {
	cfg := p.cfg.Load()

	if cfg.Strategy == None || waiting < cfg.Limit {
		proceed(0)
		return
	}

	if cfg.Strategy == Discard {
		p.observer.OnDiscard(waiting)
		return
	}

	if cfg.Strategy.deferring() {
		delay := millis(cfg.fixedTime(waiting))
		p.observer.OnDefer(waiting, delay)
		p.waiter.Wait(ctx, delay)
	}

	proceed(p.timeout(cfg, waiting))
}

func (p *Policy) timeout(cfg *Config, waiting int) time.Duration {
	if !cfg.Strategy.timingOut() {
		return Infinite
	}
	timeout := millis(cfg.fixedTime(waiting))
	p.observer.OnTimeout(waiting, timeout)
	return timeout
}
