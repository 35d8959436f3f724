package extension

import (
	"fmt"
	"time"
)

// Config holds the Vesting extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vesting" or "vesting" keys).
type Config struct {
	// DisableRoutes prevents building the HTTP API.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for vesting routes (default: "/vesting").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// Self is the vault's own account id (default: vesting.DefaultSelf).
	Self string `json:"self" mapstructure:"self" yaml:"self"`

	// Overfunding is "accept" or "reject" (default: "accept").
	Overfunding string `json:"overfunding" mapstructure:"overfunding" yaml:"overfunding"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// HistoryDriver selects the grove driver of the database passed to
	// WithGroveHistory: "sqlite", "postgres" or "mongo".
	HistoryDriver string `json:"history_driver" mapstructure:"history_driver" yaml:"history_driver"`

	// DisableAudit skips recording vault events into the history store.
	DisableAudit bool `json:"disable_audit" mapstructure:"disable_audit" yaml:"disable_audit"`

	// EnableMetrics registers the OpenTelemetry metrics plugin on the
	// global meter provider.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:      "/vesting",
		Overfunding:   "accept",
		PluginTimeout: 5 * time.Second,
	}
}

func (c Config) validate() error {
	switch c.Overfunding {
	case "", "accept", "reject":
	default:
		return fmt.Errorf("vesting: overfunding must be accept or reject, got %q", c.Overfunding)
	}
	return nil
}
