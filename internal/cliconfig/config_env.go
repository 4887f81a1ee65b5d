package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (SYSLOGSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("app-name", os.Getenv("SYSLOGSHIP_APP_NAME"), &cfg.AppName)
	s.setString("hostname", os.Getenv("SYSLOGSHIP_HOSTNAME"), &cfg.Hostname)
	s.setString("facility", os.Getenv("SYSLOGSHIP_FACILITY"), &cfg.Facility)
	s.setString("severity", os.Getenv("SYSLOGSHIP_SEVERITY"), &cfg.Severity)
	s.setString("rfc", os.Getenv("SYSLOGSHIP_RFC"), &cfg.RFC)
	s.setString("layout", os.Getenv("SYSLOGSHIP_LAYOUT"), &cfg.Layout)
	s.setString("input", os.Getenv("SYSLOGSHIP_INPUT"), &cfg.Input)
	s.setString("log-level", os.Getenv("SYSLOGSHIP_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("protocol", os.Getenv("SYSLOGSHIP_PROTOCOL"), &cfg.Protocol)
	s.setString("address", os.Getenv("SYSLOGSHIP_ADDRESS"), &cfg.Address)
	s.setString("framing", os.Getenv("SYSLOGSHIP_FRAMING"), &cfg.Framing)
	s.setString("url", os.Getenv("SYSLOGSHIP_URL"), &cfg.URL)
	s.setString("auth-key", os.Getenv("SYSLOGSHIP_AUTH_KEY"), &cfg.AuthKey)
	s.setString("redis-key", os.Getenv("SYSLOGSHIP_REDIS_KEY"), &cfg.RedisKey)
	s.setString("redis-mode", os.Getenv("SYSLOGSHIP_REDIS_MODE"), &cfg.RedisMode)
	s.setString("throttling-strategy", os.Getenv("SYSLOGSHIP_THROTTLING_STRATEGY"), &cfg.ThrottlingStrategy)
	s.setString("throttling-delay", os.Getenv("SYSLOGSHIP_THROTTLING_DELAY"), &cfg.ThrottlingDelay)

	if err := s.setDuration("timeout", os.Getenv("SYSLOGSHIP_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-length", os.Getenv("SYSLOGSHIP_MAX_LENGTH"), &cfg.MaxLength); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-size", os.Getenv("SYSLOGSHIP_QUEUE_SIZE"), &cfg.QueueSize); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", os.Getenv("SYSLOGSHIP_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setIntFromString("retries", os.Getenv("SYSLOGSHIP_RETRIES"), &cfg.Retries); err != nil {
		return err
	}
	if err := s.setIntFromString("throttling-limit", os.Getenv("SYSLOGSHIP_THROTTLING_LIMIT"), &cfg.ThrottlingLimit); err != nil {
		return err
	}

	s.setBoolFromString("split-on-newline", os.Getenv("SYSLOGSHIP_SPLIT_ON_NEWLINE"), &cfg.SplitOnNewLine)
	s.setBoolFromString("use-bom", os.Getenv("SYSLOGSHIP_USE_BOM"), &cfg.UseBOM)
	s.setBoolFromString("tls", os.Getenv("SYSLOGSHIP_TLS"), &cfg.TLS)
	s.setBoolFromString("tls-insecure", os.Getenv("SYSLOGSHIP_TLS_INSECURE"), &cfg.TLSInsecure)
	s.setBoolFromString("gzip", os.Getenv("SYSLOGSHIP_GZIP"), &cfg.Gzip)
	s.setBoolFromString("throttling-spin-wait", os.Getenv("SYSLOGSHIP_THROTTLING_SPIN_WAIT"), &cfg.ThrottlingSpinWait)

	return nil
}
