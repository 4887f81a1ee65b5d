package syslogship

import (
	"fmt"
	"os"
	"time"

	"github.com/bft-labs/syslogship/internal/adapters/builder"
	"github.com/bft-labs/syslogship/internal/adapters/transport"
	"github.com/bft-labs/syslogship/internal/app"
	"github.com/bft-labs/syslogship/internal/domain"
	"github.com/bft-labs/syslogship/internal/throttling"
)

// Config configures a Shipper.
type Config struct {
	// AppName and Hostname fill the syslog header of events that leave them
	// empty. Hostname defaults to os.Hostname().
	AppName  string
	Hostname string

	// Facility and Severity are used by NewEvent. Both accept syslog keywords
	// ("local0", "warning") or numbers.
	Facility string
	Severity string

	// RFC selects the wire format: "5424" (default) or "3164".
	RFC string

	// SplitOnNewLine sends every line of a multi-line message as its own
	// syslog message.
	SplitOnNewLine bool

	// MaxLength caps the message part of each syslog message in bytes.
	// Zero means unlimited.
	MaxLength int

	// UseBOM prefixes RFC 5424 messages with a UTF-8 byte order mark.
	UseBOM bool

	// Layout is a text/template rendered against each event.
	// Default: "{{.Message}}"
	Layout string

	// QueueSize bounds the number of records waiting to be sent.
	// Default: 10000
	QueueSize int

	// Workers is the number of records sent concurrently.
	// Default: 1
	Workers int

	// ConfigPath is the TOML file the configuration was loaded from, if any.
	// Plugins such as the config watcher use it.
	ConfigPath string

	Transport  TransportConfig
	Throttling ThrottlingConfig
}

// TransportConfig describes where and how messages are delivered.
type TransportConfig struct {
	// Protocol is tcp (default), udp, http or redis.
	Protocol string

	// Address is host:port for tcp, udp and redis.
	// Default: "127.0.0.1:514" for tcp and udp
	Address string

	TLS                   bool
	TLSInsecureSkipVerify bool

	// Framing is octet-counting (default) or non-transparent. tcp only.
	Framing string

	// Retries is the number of reconnects per message. tcp only.
	// Default: 3
	Retries int

	// URL, AuthKey and Gzip configure the http transport.
	URL     string
	AuthKey string
	Gzip    bool

	// RedisKey and RedisMode (list, stream, pubsub) configure the redis
	// transport.
	RedisKey  string
	RedisMode string

	// Timeout bounds dialing and http requests.
	// Default: 10 seconds
	Timeout time.Duration
}

// ThrottlingConfig is the string-typed form of the throttling policy used by
// configuration surfaces.
type ThrottlingConfig struct {
	// Limit is the backlog size at which throttling starts. Zero disables
	// throttling.
	Limit int

	// Strategy is one of none, discard, discard-on-fixed-timeout,
	// discard-on-percentage-timeout, defer-for-fixed-time or
	// defer-for-percentage-time.
	Strategy string

	// Delay is a decimal number of milliseconds for the fixed strategies or
	// a percentage of the backlog size for the percentage strategies.
	Delay string

	// SpinWait makes the defer strategies busy-wait instead of sleeping.
	SpinWait bool
}

// Default configuration values.
const (
	DefaultAppName   = "syslogship"
	DefaultFacility  = "user"
	DefaultSeverity  = "info"
	DefaultRFC       = "5424"
	DefaultProtocol  = transport.ProtocolTCP
	DefaultAddress   = "127.0.0.1:514"
	DefaultTimeout   = 10 * time.Second
	DefaultQueueSize = app.DefaultQueueSize
	DefaultWorkers   = app.DefaultWorkers
)

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			c.Hostname = h
		}
	}
	if c.Facility == "" {
		c.Facility = DefaultFacility
	}
	if c.Severity == "" {
		c.Severity = DefaultSeverity
	}
	if c.RFC == "" {
		c.RFC = DefaultRFC
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Transport.Protocol == "" {
		c.Transport.Protocol = DefaultProtocol
	}
	if c.Transport.Address == "" && (c.Transport.Protocol == transport.ProtocolTCP || c.Transport.Protocol == transport.ProtocolUDP) {
		c.Transport.Address = DefaultAddress
	}
	if c.Transport.Retries <= 0 {
		c.Transport.Retries = transport.DefaultRetries
	}
	if c.Transport.Timeout <= 0 {
		c.Transport.Timeout = DefaultTimeout
	}
	if c.Throttling.Strategy == "" {
		c.Throttling.Strategy = throttling.None.String()
	}
}

// Validate checks the configuration. Errors wrap domain.ErrInvalidConfig.
func (c Config) Validate() error {
	if _, err := domain.ParseFacility(c.Facility); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if _, err := domain.ParseSeverity(c.Severity); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if c.RFC != string(builder.RFC5424Format) && c.RFC != string(builder.RFC3164Format) {
		return fmt.Errorf("%w: unknown rfc %q", domain.ErrInvalidConfig, c.RFC)
	}
	if c.MaxLength < 0 {
		return fmt.Errorf("%w: max_length must not be negative", domain.ErrInvalidConfig)
	}
	if _, err := builder.NewTemplateLayout(c.Layout); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if _, err := c.Throttling.policyConfig(); err != nil {
		return err
	}
	return nil
}

// policyConfig converts to the normalized throttling.Config.
func (t ThrottlingConfig) policyConfig() (throttling.Config, error) {
	strategy, err := throttling.ParseStrategy(t.Strategy)
	if err != nil {
		return throttling.Config{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	cfg := throttling.Config{Limit: t.Limit, Strategy: strategy}
	if t.Delay != "" {
		delay, err := throttling.ParseDelay(t.Delay)
		if err != nil {
			return throttling.Config{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
		}
		cfg.Delay = delay
	}
	cfg.EnsureAllowedValues()
	return cfg, nil
}

func throttlingConfigFrom(cfg throttling.Config, spin bool) ThrottlingConfig {
	return ThrottlingConfig{
		Limit:    cfg.Limit,
		Strategy: cfg.Strategy.String(),
		Delay:    cfg.Delay.String(),
		SpinWait: spin,
	}
}

func (t TransportConfig) internal() transport.Config {
	return transport.Config{
		Protocol:              t.Protocol,
		Address:               t.Address,
		TLS:                   t.TLS,
		TLSInsecureSkipVerify: t.TLSInsecureSkipVerify,
		Framing:               transport.Framing(t.Framing),
		Retries:               t.Retries,
		URL:                   t.URL,
		AuthKey:               t.AuthKey,
		Gzip:                  t.Gzip,
		RedisKey:              t.RedisKey,
		RedisMode:             t.RedisMode,
		Timeout:               t.Timeout,
	}
}
