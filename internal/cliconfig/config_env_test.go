package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"SYSLOGSHIP_APP_NAME":             "env-app",
				"SYSLOGSHIP_PROTOCOL":             "tcp",
				"SYSLOGSHIP_ADDRESS":              "logs:6514",
				"SYSLOGSHIP_TLS":                  "true",
				"SYSLOGSHIP_TIMEOUT":              "2s",
				"SYSLOGSHIP_WORKERS":              "4",
				"SYSLOGSHIP_THROTTLING_LIMIT":     "200",
				"SYSLOGSHIP_THROTTLING_STRATEGY":  "defer-for-fixed-time",
				"SYSLOGSHIP_THROTTLING_DELAY":     "3",
				"SYSLOGSHIP_THROTTLING_SPIN_WAIT": "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				AppName:            "env-app",
				Protocol:           "tcp",
				Address:            "logs:6514",
				TLS:                true,
				Timeout:            2 * time.Second,
				Workers:            4,
				ThrottlingLimit:    200,
				ThrottlingStrategy: "defer-for-fixed-time",
				ThrottlingDelay:    "3",
				ThrottlingSpinWait: true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"SYSLOGSHIP_ADDRESS":          "env:514",
				"SYSLOGSHIP_THROTTLING_LIMIT": "9",
			},
			changed: map[string]bool{"address": true},
			initial: Config{
				Address: "flag:514",
			},
			expected: Config{
				Address:         "flag:514",
				ThrottlingLimit: 9,
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"SYSLOGSHIP_TIMEOUT": "soon",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"SYSLOGSHIP_QUEUE_SIZE": "lots",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"SYSLOGSHIP_GZIP": "false",
			},
			changed: map[string]bool{},
			initial: Config{Gzip: true},
			expected: Config{
				Gzip: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("config = %+v\nwant %+v", cfg, tt.expected)
			}
		})
	}
}

// Flags beat env, env beats the file.
func TestPrecedence(t *testing.T) {
	t.Setenv("SYSLOGSHIP_ADDRESS", "env:514")
	t.Setenv("SYSLOGSHIP_THROTTLING_STRATEGY", "discard")

	cfg := DefaultConfig()
	cfg.ThrottlingStrategy = "defer-for-fixed-time" // set by flag
	changed := map[string]bool{"throttling-strategy": true}

	fc := FileConfig{
		AppName:    "file-app",
		Transport:  FileTransport{Address: "file:514"},
		Throttling: FileThrottling{Strategy: "discard-on-fixed-timeout", Limit: 10},
	}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}

	if cfg.AppName != "file-app" {
		t.Errorf("AppName = %v, want file-app", cfg.AppName)
	}
	if cfg.Address != "env:514" {
		t.Errorf("Address = %v, want env:514", cfg.Address)
	}
	if cfg.ThrottlingStrategy != "defer-for-fixed-time" {
		t.Errorf("ThrottlingStrategy = %v, want defer-for-fixed-time", cfg.ThrottlingStrategy)
	}
	if cfg.ThrottlingLimit != 10 {
		t.Errorf("ThrottlingLimit = %v, want 10", cfg.ThrottlingLimit)
	}
}
