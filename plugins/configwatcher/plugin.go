// Package configwatcher provides config file monitoring for syslogship.
// When enabled, it watches the shipper's TOML config file and applies
// changes to its [throttling] table to the running shipper.
package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/syslogship/pkg/log"
	"github.com/bft-labs/syslogship/pkg/syslogship"
)

// Plugin implements config watching functionality.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	// Runtime state
	path       string
	logger     syslogship.Logger
	throttling syslogship.ThrottlingController
	watcher    *fsnotify.Watcher
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching cfg.ConfigPath. Watching is disabled, not an
// error, when no config file is configured or it cannot be watched.
func (p *Plugin) Initialize(ctx context.Context, cfg syslogship.PluginConfig) error {
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.path = cfg.ConfigPath
	p.throttling = cfg.Throttling

	if p.path == "" || p.throttling == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("config watcher: failed to create watcher", log.Err(err))
		return nil
	}
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		p.logger.Error("config watcher: failed to watch directory",
			log.String("dir", filepath.Dir(p.path)),
			log.Err(err))
		watcher.Close()
		return nil
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher plugin initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()
	defer p.watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher: watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := p.reload(); err != nil {
			p.logger.Error("config watcher: reload failed",
				log.String("path", p.path),
				log.Err(err))
		}
	})
}

// throttlingTable is the [throttling] table of the config file. Pointer
// fields distinguish absent keys from zero values.
type throttlingTable struct {
	Limit    *int    `toml:"limit"`
	Strategy *string `toml:"strategy"`
	Delay    *string `toml:"delay"`
	SpinWait *bool   `toml:"spin_wait"`
}

type fileConfig struct {
	Throttling *throttlingTable `toml:"throttling"`
}

// reload applies the file's [throttling] table on top of the active policy.
// Keys missing from the table keep their current values.
func (p *Plugin) reload() error {
	b, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if fc.Throttling == nil {
		return nil
	}

	next := p.throttling.Throttling()
	t := fc.Throttling
	if t.Limit != nil {
		next.Limit = *t.Limit
	}
	if t.Strategy != nil {
		next.Strategy = *t.Strategy
	}
	if t.Delay != nil {
		next.Delay = *t.Delay
	}
	if t.SpinWait != nil {
		next.SpinWait = *t.SpinWait
	}

	if next == p.throttling.Throttling() {
		return nil
	}
	if err := p.throttling.SetThrottling(next); err != nil {
		return err
	}
	p.logger.Info("config watcher: throttling reloaded",
		log.Int("limit", next.Limit),
		log.String("strategy", next.Strategy),
		log.String("delay", next.Delay))
	return nil
}

// Ensure Plugin implements syslogship.Plugin.
var _ syslogship.Plugin = (*Plugin)(nil)
