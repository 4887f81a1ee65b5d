package syslogship

import "context"

// Plugin extends a Shipper. Plugins are initialized in registration order
// on Start and shut down in reverse order on Stop.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// ThrottlingController reads and replaces the active throttling policy.
// *Shipper implements it.
type ThrottlingController interface {
	Throttling() ThrottlingConfig
	SetThrottling(ThrottlingConfig) error
}

// PluginConfig is passed to Plugin.Initialize.
type PluginConfig struct {
	// ConfigPath is Config.ConfigPath.
	ConfigPath string

	// Logger is the shipper's logger. Never nil.
	Logger Logger

	// Throttling controls the running shipper's throttling policy.
	Throttling ThrottlingController
}

// BasePlugin provides a name and no-op lifecycle methods. Embed it and
// override what the plugin needs.
type BasePlugin struct {
	name string
}

// NewBasePlugin creates a BasePlugin named name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

// Name returns the plugin name.
func (p BasePlugin) Name() string { return p.name }

// Initialize does nothing.
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }

// Shutdown does nothing.
func (BasePlugin) Shutdown(context.Context) error { return nil }
