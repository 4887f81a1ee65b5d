// Package transport provides the byte-level transmitters that deliver framed
// syslog messages: TCP (optionally TLS), UDP, HTTP and Redis.
//
// Every transmitter treats one Send call as one message that either succeeds,
// fails or is cancelled. None of them retries a message beyond re-establishing
// a broken connection.
package transport

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/ports"
)

// Protocol names accepted by New.
const (
	ProtocolTCP   = "tcp"
	ProtocolUDP   = "udp"
	ProtocolHTTP  = "http"
	ProtocolRedis = "redis"
)

// Framing selects how TCP separates messages on the stream.
type Framing string

const (
	// OctetCounting prefixes each message with its length (RFC 6587 3.4.1).
	OctetCounting Framing = "octet-counting"
	// NonTransparent terminates each message with a line feed (RFC 6587 3.4.2).
	NonTransparent Framing = "non-transparent"
)

// Config describes a transmitter.
type Config struct {
	// Protocol is one of tcp, udp, http or redis.
	Protocol string

	// Address is host:port for tcp, udp and redis. For redis a redis:// URL
	// is accepted as well.
	Address string

	// TLS enables TLS on tcp.
	TLS bool
	// TLSInsecureSkipVerify disables certificate verification.
	TLSInsecureSkipVerify bool

	// Framing applies to tcp. Defaults to OctetCounting.
	Framing Framing

	// Retries is how many times tcp reconnects for a single message before
	// failing it.
	Retries int

	// URL is the endpoint for http.
	URL string
	// AuthKey is sent as a bearer token by http.
	AuthKey string
	// Gzip compresses http request bodies.
	Gzip bool

	// RedisKey is the list, stream or channel name.
	RedisKey string
	// RedisMode is one of list, stream or pubsub.
	RedisMode string

	// Timeout bounds dialing and http requests.
	Timeout time.Duration
}

// New creates the transmitter described by cfg.
func New(cfg Config, logger ports.Logger) (ports.Transmitter, error) {
	switch strings.ToLower(cfg.Protocol) {
	case ProtocolTCP, "":
		var tlsConfig *tls.Config
		if cfg.TLS {
			tlsConfig = &tls.Config{InsecureSkipVerify: cfg.TLSInsecureSkipVerify}
		}
		return NewTCP(cfg.Address, TCPOptions{
			TLS:         tlsConfig,
			Framing:     cfg.Framing,
			DialTimeout: cfg.Timeout,
			Retries:     cfg.Retries,
		}, logger)
	case ProtocolUDP:
		return NewUDP(cfg.Address, cfg.Timeout)
	case ProtocolHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("%w: http transport requires a url", domain.ErrInvalidConfig)
		}
		client := &http.Client{Timeout: cfg.Timeout}
		return NewHTTP(client, HTTPOptions{URL: cfg.URL, AuthKey: cfg.AuthKey, Gzip: cfg.Gzip}), nil
	case ProtocolRedis:
		return NewRedis(cfg.Address, RedisMode(cfg.RedisMode), cfg.RedisKey)
	default:
		return nil, fmt.Errorf("%w: unknown protocol %q", domain.ErrInvalidConfig, cfg.Protocol)
	}
}
