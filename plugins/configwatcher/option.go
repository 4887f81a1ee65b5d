package configwatcher

import "github.com/bft-labs/syslogship/pkg/syslogship"

// WithConfigWatcher returns a syslogship Option that enables config file
// watching. When enabled, the plugin reloads the [throttling] table of
// Config.ConfigPath whenever the file changes.
//
// Usage:
//
//	s, err := syslogship.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) syslogship.Option {
	return syslogship.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher returns a syslogship Option that enables config
// watching with default settings (debounce 100ms).
//
// Usage:
//
//	s, err := syslogship.New(cfg, configwatcher.WithDefaultConfigWatcher())
func WithDefaultConfigWatcher() syslogship.Option {
	return WithConfigWatcher(DefaultConfig())
}
