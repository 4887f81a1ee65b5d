package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bft-labs/syslogship/internal/backoff"
	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
	"github.com/bft-labs/syslogship/pkg/log"
)

// DefaultRetries is the number of reconnects attempted per message.
const DefaultRetries = 3

// TCPOptions configures a TCP transmitter.
type TCPOptions struct {
	TLS         *tls.Config
	Framing     Framing
	DialTimeout time.Duration
	Retries     int

	// BackoffInitial and BackoffMax tune the reconnect delay.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// TCP sends framed messages over a single stream connection. The connection
// is dialed lazily and re-dialed after a write failure.
type TCP struct {
	address string
	opts    TCPOptions
	logger  ports.Logger
	dialer  net.Dialer

	mu      sync.Mutex
	conn    net.Conn
	frame   []byte
	backoff *backoff.Backoff
	closed  bool
}

// NewTCP creates a TCP transmitter for address.
func NewTCP(address string, opts TCPOptions, logger ports.Logger) (*TCP, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: tcp transport requires an address", domain.ErrInvalidConfig)
	}
	switch opts.Framing {
	case "":
		opts.Framing = OctetCounting
	case OctetCounting, NonTransparent:
	default:
		return nil, fmt.Errorf("%w: unknown framing %q", domain.ErrInvalidConfig, opts.Framing)
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &TCP{
		address: address,
		opts:    opts,
		logger:  logger,
		dialer:  net.Dialer{Timeout: opts.DialTimeout},
		backoff: backoff.New(opts.BackoffInitial, opts.BackoffMax),
	}, nil
}

// Send writes one framed message. On a write or dial failure the connection
// is dropped and re-established up to Retries times.
func (t *TCP) Send(ctx context.Context, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("tcp %s: %w", t.address, net.ErrClosed)
	}
	t.frame = t.appendFrame(t.frame[:0], payload)

	var lastErr error
	for attempt := 0; attempt <= t.opts.Retries; attempt++ {
		if attempt > 0 {
			t.logger.Warn("reconnecting syslog tcp transport",
				ports.String("address", t.address),
				ports.Int("attempt", attempt),
				ports.Err(lastErr),
			)
			if err := t.backoff.Wait(ctx); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := t.write(ctx)
		if err == nil {
			t.backoff.Reset()
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err
	}
	return fmt.Errorf("tcp %s: %w", t.address, lastErr)
}

func (t *TCP) write(ctx context.Context) error {
	if t.conn == nil {
		conn, err := t.dial(ctx)
		if err != nil {
			return fmt.Errorf("dial: %w", err)
		}
		t.conn = conn
		t.logger.Debug("connected syslog tcp transport", ports.String("address", t.address))
	}

	deadline, _ := ctx.Deadline()
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		t.drop()
		return fmt.Errorf("set deadline: %w", err)
	}

	conn := t.conn
	stop := context.AfterFunc(ctx, func() {
		conn.SetWriteDeadline(time.Now())
	})
	_, err := conn.Write(t.frame)
	stop()

	if err != nil {
		t.drop()
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (t *TCP) dial(ctx context.Context) (net.Conn, error) {
	if t.opts.TLS == nil {
		return t.dialer.DialContext(ctx, "tcp", t.address)
	}
	cfg := t.opts.TLS.Clone()
	if cfg.ServerName == "" {
		if host, _, err := net.SplitHostPort(t.address); err == nil {
			cfg.ServerName = host
		}
	}
	d := tls.Dialer{NetDialer: &t.dialer, Config: cfg}
	return d.DialContext(ctx, "tcp", t.address)
}

func (t *TCP) drop() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

func (t *TCP) appendFrame(dst, payload []byte) []byte {
	if t.opts.Framing == NonTransparent {
		dst = append(dst, payload...)
		return append(dst, '\n')
	}
	dst = strconv.AppendInt(dst, int64(len(payload)), 10)
	dst = append(dst, ' ')
	return append(dst, payload...)
}

// Close closes the connection. Later sends fail.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
