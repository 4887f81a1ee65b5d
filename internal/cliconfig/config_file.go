package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	AppName        string `toml:"app_name"`
	Hostname       string `toml:"hostname"`
	Facility       string `toml:"facility"`
	Severity       string `toml:"severity"`
	RFC            string `toml:"rfc"`
	SplitOnNewLine *bool  `toml:"split_on_newline"`
	MaxLength      int    `toml:"max_length"`
	UseBOM         *bool  `toml:"use_bom"`
	Layout         string `toml:"layout"`
	QueueSize      int    `toml:"queue_size"`
	Workers        int    `toml:"workers"`
	Input          string `toml:"input"`
	LogLevel       string `toml:"log_level"`

	Transport  FileTransport  `toml:"transport"`
	Throttling FileThrottling `toml:"throttling"`
}

// FileTransport is the [transport] table.
type FileTransport struct {
	Protocol    string `toml:"protocol"`
	Address     string `toml:"address"`
	TLS         *bool  `toml:"tls"`
	TLSInsecure *bool  `toml:"tls_insecure"`
	Framing     string `toml:"framing"`
	Retries     int    `toml:"retries"`
	URL         string `toml:"url"`
	AuthKey     string `toml:"auth_key"`
	Gzip        *bool  `toml:"gzip"`
	RedisKey    string `toml:"redis_key"`
	RedisMode   string `toml:"redis_mode"`
	Timeout     string `toml:"timeout"`
}

// FileThrottling is the [throttling] table. Delay is a decimal string so
// that "12.5" survives without float rounding.
type FileThrottling struct {
	Limit    int    `toml:"limit"`
	Strategy string `toml:"strategy"`
	Delay    string `toml:"delay"`
	SpinWait *bool  `toml:"spin_wait"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.syslogship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".syslogship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("app-name", fc.AppName, &cfg.AppName)
	s.setString("hostname", fc.Hostname, &cfg.Hostname)
	s.setString("facility", fc.Facility, &cfg.Facility)
	s.setString("severity", fc.Severity, &cfg.Severity)
	s.setString("rfc", fc.RFC, &cfg.RFC)
	s.setString("layout", fc.Layout, &cfg.Layout)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setInt("max-length", fc.MaxLength, &cfg.MaxLength)
	s.setInt("queue-size", fc.QueueSize, &cfg.QueueSize)
	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setBool("split-on-newline", fc.SplitOnNewLine, &cfg.SplitOnNewLine)
	s.setBool("use-bom", fc.UseBOM, &cfg.UseBOM)

	t := fc.Transport
	s.setString("protocol", t.Protocol, &cfg.Protocol)
	s.setString("address", t.Address, &cfg.Address)
	s.setString("framing", t.Framing, &cfg.Framing)
	s.setString("url", t.URL, &cfg.URL)
	s.setString("auth-key", t.AuthKey, &cfg.AuthKey)
	s.setString("redis-key", t.RedisKey, &cfg.RedisKey)
	s.setString("redis-mode", t.RedisMode, &cfg.RedisMode)
	s.setInt("retries", t.Retries, &cfg.Retries)
	s.setBool("tls", t.TLS, &cfg.TLS)
	s.setBool("tls-insecure", t.TLSInsecure, &cfg.TLSInsecure)
	s.setBool("gzip", t.Gzip, &cfg.Gzip)
	if err := s.setDuration("timeout", t.Timeout, &cfg.Timeout); err != nil {
		return err
	}

	th := fc.Throttling
	s.setInt("throttling-limit", th.Limit, &cfg.ThrottlingLimit)
	s.setString("throttling-strategy", th.Strategy, &cfg.ThrottlingStrategy)
	s.setString("throttling-delay", th.Delay, &cfg.ThrottlingDelay)
	s.setBool("throttling-spin-wait", th.SpinWait, &cfg.ThrottlingSpinWait)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
