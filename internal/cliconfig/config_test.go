package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/syslogship/pkg/syslogship"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Protocol != "tcp" {
		t.Errorf("Protocol = %v, want tcp", cfg.Protocol)
	}
	if cfg.Address != syslogship.DefaultAddress {
		t.Errorf("Address = %v, want %v", cfg.Address, syslogship.DefaultAddress)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.ThrottlingStrategy != "none" {
		t.Errorf("ThrottlingStrategy = %v, want none", cfg.ThrottlingStrategy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "http without url",
			mutate:  func(c *Config) { c.Protocol = "http" },
			wantErr: true,
		},
		{
			name:    "unknown severity",
			mutate:  func(c *Config) { c.Severity = "shouting" },
			wantErr: true,
		},
		{
			name:    "unknown throttling strategy",
			mutate:  func(c *Config) { c.ThrottlingStrategy = "maybe" },
			wantErr: true,
		},
		{
			name: "out of range throttling is clamped",
			mutate: func(c *Config) {
				c.ThrottlingLimit = -5
				c.ThrottlingStrategy = "discard"
				c.ThrottlingDelay = "-100"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, syslogship.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_ShipperConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AppName = "app"
	cfg.Protocol = "redis"
	cfg.Address = "localhost:6379"
	cfg.RedisMode = "stream"
	cfg.TLSInsecure = true
	cfg.ThrottlingLimit = 50
	cfg.ThrottlingStrategy = "defer-for-percentage-time"
	cfg.ThrottlingDelay = "20"

	got := cfg.ShipperConfig("/etc/syslogship.toml")

	if got.AppName != "app" || got.ConfigPath != "/etc/syslogship.toml" {
		t.Errorf("AppName = %q, ConfigPath = %q", got.AppName, got.ConfigPath)
	}
	if got.Transport.Protocol != "redis" || got.Transport.RedisMode != "stream" || !got.Transport.TLSInsecureSkipVerify {
		t.Errorf("Transport = %+v", got.Transport)
	}
	want := syslogship.ThrottlingConfig{Limit: 50, Strategy: "defer-for-percentage-time", Delay: "20"}
	if got.Throttling != want {
		t.Errorf("Throttling = %+v, want %+v", got.Throttling, want)
	}
}

func TestConfigSetter(t *testing.T) {
	s := newConfigSetter(map[string]bool{"address": true})

	addr := "flag:1"
	s.setString("address", "file:2", &addr)
	if addr != "flag:1" {
		t.Errorf("changed flag overwritten: %v", addr)
	}

	n := 7
	s.setInt("workers", 0, &n)
	if n != 7 {
		t.Errorf("zero int applied: %v", n)
	}

	var d time.Duration
	if err := s.setDuration("timeout", "bogus", &d); err == nil {
		t.Error("setDuration() accepted an invalid duration")
	}
}
