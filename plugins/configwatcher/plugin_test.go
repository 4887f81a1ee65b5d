package configwatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/syslogship/pkg/log"
	"github.com/bft-labs/syslogship/pkg/syslogship"
)

// fakeThrottling records SetThrottling calls.
type fakeThrottling struct {
	mu      sync.Mutex
	current syslogship.ThrottlingConfig
	sets    int
	err     error
}

func (f *fakeThrottling) Throttling() syslogship.ThrottlingConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeThrottling) SetThrottling(cfg syslogship.ThrottlingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.current = cfg
	f.sets++
	return nil
}

func (f *fakeThrottling) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func startPlugin(t *testing.T, path string, ctrl syslogship.ThrottlingController) *Plugin {
	t.Helper()
	plugin := New(Config{DebounceDelay: 10 * time.Millisecond})
	err := plugin.Initialize(context.Background(), syslogship.PluginConfig{
		ConfigPath: path,
		Logger:     log.NewNoopLogger(),
		Throttling: ctrl,
	})
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	t.Cleanup(func() { plugin.Shutdown(context.Background()) })
	return plugin
}

func TestPlugin_ReloadsThrottlingOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "[transport]\naddress = \"127.0.0.1:514\"\n")

	ctrl := &fakeThrottling{current: syslogship.ThrottlingConfig{Strategy: "none", Delay: "0"}}
	startPlugin(t, path, ctrl)

	writeConfig(t, path, `
[throttling]
limit = 100
strategy = "defer-for-fixed-time"
delay = "2.5"
`)

	deadline := time.Now().Add(5 * time.Second)
	for ctrl.Sets() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("throttling was not reloaded")
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := syslogship.ThrottlingConfig{Limit: 100, Strategy: "defer-for-fixed-time", Delay: "2.5"}
	if got := ctrl.Throttling(); got != want {
		t.Errorf("Throttling() = %+v, want %+v", got, want)
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "")

	ctrl := &fakeThrottling{}
	startPlugin(t, path, ctrl)

	writeConfig(t, filepath.Join(dir, "other.toml"), "[throttling]\nlimit = 5\nstrategy = \"discard\"\n")
	time.Sleep(100 * time.Millisecond)

	if n := ctrl.Sets(); n != 0 {
		t.Errorf("SetThrottling called %d times, want 0", n)
	}
}

func TestPlugin_Reload(t *testing.T) {
	base := syslogship.ThrottlingConfig{Limit: 10, Strategy: "discard", Delay: "0"}

	tests := []struct {
		name     string
		content  string
		setErr   error
		want     syslogship.ThrottlingConfig
		wantSets int
		wantErr  bool
	}{
		{
			name:     "partial table keeps other keys",
			content:  "[throttling]\ndelay = \"50\"\nspin_wait = true\n",
			want:     syslogship.ThrottlingConfig{Limit: 10, Strategy: "discard", Delay: "50", SpinWait: true},
			wantSets: 1,
		},
		{
			name:    "no throttling table",
			content: "[transport]\nprotocol = \"udp\"\n",
			want:    base,
		},
		{
			name:    "unchanged values",
			content: "[throttling]\nlimit = 10\nstrategy = \"discard\"\n",
			want:    base,
		},
		{
			name:    "malformed toml",
			content: "[throttling\nlimit = ",
			want:    base,
			wantErr: true,
		},
		{
			name:    "rejected by shipper",
			content: "[throttling]\nstrategy = \"sometimes\"\n",
			setErr:  syslogship.ErrInvalidConfig,
			want:    base,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeConfig(t, path, tt.content)

			ctrl := &fakeThrottling{current: base, err: tt.setErr}
			p := &Plugin{path: path, logger: log.NewNoopLogger(), throttling: ctrl}

			err := p.reload()
			if (err != nil) != tt.wantErr {
				t.Fatalf("reload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := ctrl.Throttling(); got != tt.want {
				t.Errorf("Throttling() = %+v, want %+v", got, tt.want)
			}
			if ctrl.Sets() != tt.wantSets {
				t.Errorf("SetThrottling calls = %d, want %d", ctrl.Sets(), tt.wantSets)
			}
		})
	}
}

func TestPlugin_ReloadMissingFile(t *testing.T) {
	p := &Plugin{
		path:       filepath.Join(t.TempDir(), "missing.toml"),
		logger:     log.NewNoopLogger(),
		throttling: &fakeThrottling{},
	}
	if err := p.reload(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("reload() error = %v, want os.ErrNotExist", err)
	}
}

func TestPlugin_DisabledWithoutConfigPath(t *testing.T) {
	plugin := New(DefaultConfig())
	err := plugin.Initialize(context.Background(), syslogship.PluginConfig{
		Logger:     log.NewNoopLogger(),
		Throttling: &fakeThrottling{},
	})
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	if plugin.watcher != nil {
		t.Error("watcher started without a config path")
	}
	if err := plugin.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

func TestPlugin_MissingDirectory(t *testing.T) {
	plugin := New(DefaultConfig())
	err := plugin.Initialize(context.Background(), syslogship.PluginConfig{
		ConfigPath: filepath.Join(t.TempDir(), "nope", "config.toml"),
		Logger:     log.NewNoopLogger(),
		Throttling: &fakeThrottling{},
	})
	if err != nil {
		t.Fatalf("Initialize() should not fail on an unwatchable path: %v", err)
	}
	if plugin.watcher != nil {
		t.Error("watcher kept for an unwatchable path")
	}
}

func TestPlugin_WithShipper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "")

	cfg := syslogship.Config{AppName: "test", Hostname: "host", ConfigPath: path}
	s, err := syslogship.New(cfg,
		syslogship.WithTransmitter(nopTransmitter{}),
		WithConfigWatcher(Config{DebounceDelay: 10 * time.Millisecond}),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	writeConfig(t, path, "[throttling]\nlimit = 7\nstrategy = \"DiscardOnPercentageTimeout\"\ndelay = \"40\"\n")

	want := syslogship.ThrottlingConfig{Limit: 7, Strategy: "discard-on-percentage-timeout", Delay: "40"}
	deadline := time.Now().Add(5 * time.Second)
	for s.Throttling() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Throttling() = %+v, want %+v", s.Throttling(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type nopTransmitter struct{}

func (nopTransmitter) Send(context.Context, []byte) error { return nil }
func (nopTransmitter) Close() error                       { return nil }
