package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bft-labs/syslogship/internal/domain"
)

// UDP sends each message as one datagram.
type UDP struct {
	address string
	dialer  net.Dialer

	mu   sync.Mutex
	conn net.Conn
}

// NewUDP creates a UDP transmitter for address.
func NewUDP(address string, dialTimeout time.Duration) (*UDP, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: udp transport requires an address", domain.ErrInvalidConfig)
	}
	return &UDP{address: address, dialer: net.Dialer{Timeout: dialTimeout}}, nil
}

// Send writes payload as a single datagram.
func (u *UDP) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		conn, err := u.dialer.DialContext(ctx, "udp", u.address)
		if err != nil {
			return fmt.Errorf("udp %s: dial: %w", u.address, err)
		}
		u.conn = conn
	}

	deadline, _ := ctx.Deadline()
	u.conn.SetWriteDeadline(deadline)
	if _, err := u.conn.Write(payload); err != nil {
		u.conn.Close()
		u.conn = nil
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("udp %s: write: %w", u.address, err)
	}
	return nil
}

// Close closes the socket.
func (u *UDP) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}
