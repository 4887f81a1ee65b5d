package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/syslogship/pkg/syslogship"
)

// Config holds CLI configuration for syslogship.
type Config struct {
	AppName        string
	Hostname       string
	Facility       string
	Severity       string
	RFC            string
	SplitOnNewLine bool
	MaxLength      int
	UseBOM         bool
	Layout         string
	QueueSize      int
	Workers        int

	// Input is the file to read lines from. Empty or "-" means stdin.
	Input    string
	LogLevel string

	Protocol    string
	Address     string
	TLS         bool
	TLSInsecure bool
	Framing     string
	Retries     int
	URL         string
	AuthKey     string
	Gzip        bool
	RedisKey    string
	RedisMode   string
	Timeout     time.Duration

	ThrottlingLimit    int
	ThrottlingStrategy string
	ThrottlingDelay    string
	ThrottlingSpinWait bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AppName:            syslogship.DefaultAppName,
		Facility:           syslogship.DefaultFacility,
		Severity:           syslogship.DefaultSeverity,
		RFC:                syslogship.DefaultRFC,
		Layout:             "{{.Message}}",
		QueueSize:          syslogship.DefaultQueueSize,
		Workers:            syslogship.DefaultWorkers,
		LogLevel:           "info",
		Protocol:           syslogship.DefaultProtocol,
		Address:            syslogship.DefaultAddress,
		Framing:            "octet-counting",
		Retries:            3,
		Timeout:            syslogship.DefaultTimeout,
		ThrottlingStrategy: "none",
		ThrottlingDelay:    "0",
	}
}

// ShipperConfig converts to the library configuration. configPath is passed
// through for plugins that watch the file.
func (c Config) ShipperConfig(configPath string) syslogship.Config {
	return syslogship.Config{
		AppName:        c.AppName,
		Hostname:       c.Hostname,
		Facility:       c.Facility,
		Severity:       c.Severity,
		RFC:            c.RFC,
		SplitOnNewLine: c.SplitOnNewLine,
		MaxLength:      c.MaxLength,
		UseBOM:         c.UseBOM,
		Layout:         c.Layout,
		QueueSize:      c.QueueSize,
		Workers:        c.Workers,
		ConfigPath:     configPath,
		Transport: syslogship.TransportConfig{
			Protocol:              c.Protocol,
			Address:               c.Address,
			TLS:                   c.TLS,
			TLSInsecureSkipVerify: c.TLSInsecure,
			Framing:               c.Framing,
			Retries:               c.Retries,
			URL:                   c.URL,
			AuthKey:               c.AuthKey,
			Gzip:                  c.Gzip,
			RedisKey:              c.RedisKey,
			RedisMode:             c.RedisMode,
			Timeout:               c.Timeout,
		},
		Throttling: syslogship.ThrottlingConfig{
			Limit:    c.ThrottlingLimit,
			Strategy: c.ThrottlingStrategy,
			Delay:    c.ThrottlingDelay,
			SpinWait: c.ThrottlingSpinWait,
		},
	}
}

// Validate checks the configuration for errors. Throttling values out of
// range are clamped rather than rejected.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", syslogship.ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", syslogship.ErrInvalidConfig)
	}
	if c.Protocol == "http" && c.URL == "" {
		return fmt.Errorf("%w: url is required for the http protocol", syslogship.ErrInvalidConfig)
	}
	cfg := c.ShipperConfig("")
	return cfg.Validate()
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
