// Package extension provides the Forge extension adapter for Vesting.
//
// It implements the forge.Extension interface to integrate the vault
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.vesting" or "vesting" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"
	"go.opentelemetry.io/otel"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/api"
	audithook "github.com/xraph/vesting/audit_hook"
	"github.com/xraph/vesting/history"
	historymemory "github.com/xraph/vesting/history/memory"
	historymongo "github.com/xraph/vesting/history/mongo"
	historypg "github.com/xraph/vesting/history/postgres"
	historysqlite "github.com/xraph/vesting/history/sqlite"
	"github.com/xraph/vesting/observability"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/transfer"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "vesting"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Time-locked token release ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = vesting.Version

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Worker is a transfer service with its own delivery loop, such as
// token.Dispatcher.
type Worker interface {
	Bind(fn transfer.ReconcileFunc)
	Start(ctx context.Context)
	Stop()
}

// Extension adapts the vault as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	vault     *vesting.Vault
	store     store.Store
	transfers transfer.Service
	history   history.Store
	groveDB   *grove.DB
	server    *api.Server
	vaultOpts []vesting.Option
	apiOpts   []api.Option
}

// New creates a new Vesting Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Vault returns the underlying vault.
// This is nil until Register is called.
func (e *Extension) Vault() *vesting.Vault { return e.vault }

// History returns the audit history store, or nil when auditing is disabled.
func (e *Extension) History() history.Store { return e.history }

// API returns the HTTP server, or nil when routes are disabled.
func (e *Extension) API() *api.Server { return e.server }

// Register implements [forge.Extension]. It loads configuration,
// initializes the vault, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.transfers == nil {
		return errors.New("vesting: a transfer service is required; use WithTransfer")
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	if !e.config.DisableAudit && e.history == nil {
		hs, err := e.buildHistory()
		if err != nil {
			return err
		}
		e.history = hs
	}

	e.vault = vesting.New(e.store, e.transfers, e.buildVaultOpts()...)

	if w, ok := e.transfers.(Worker); ok {
		w.Bind(e.vault.Reconciler())
	}

	if !e.config.DisableRoutes {
		opts := append([]api.Option{api.WithBasePath(e.config.BasePath)}, e.apiOpts...)
		e.server = api.New(e.vault, opts...)
	}

	if err := vessel.Provide(fapp.Container(), func() (*vesting.Vault, error) {
		return e.vault, nil
	}); err != nil {
		return err
	}
	if e.history != nil {
		return vessel.Provide(fapp.Container(), func() (history.Store, error) {
			return e.history, nil
		})
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.vault == nil {
		return errors.New("vesting: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if e.history != nil {
			if err := e.history.Migrate(ctx); err != nil {
				return fmt.Errorf("vesting: migrate history: %w", err)
			}
		}
		if err := e.vault.Start(ctx); err != nil {
			return err
		}
	}

	if w, ok := e.transfers.(Worker); ok {
		w.Start(context.WithoutCancel(ctx))
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	defer e.MarkStopped()

	if w, ok := e.transfers.(Worker); ok {
		w.Stop()
	}

	var errs []error
	if e.vault != nil {
		errs = append(errs, e.vault.Stop())
	}
	if e.history != nil {
		errs = append(errs, e.history.Close())
	}
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("vesting: store not initialized")
	}
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.history != nil {
		return e.history.Ping(ctx)
	}
	return nil
}

// buildHistory picks the history backend from the grove database, falling
// back to memory.
func (e *Extension) buildHistory() (history.Store, error) {
	if e.groveDB == nil {
		return historymemory.New(), nil
	}
	switch e.config.HistoryDriver {
	case "sqlite":
		return historysqlite.New(e.groveDB), nil
	case "postgres", "pg":
		return historypg.New(e.groveDB), nil
	case "mongo", "mongodb":
		return historymongo.New(e.groveDB), nil
	}
	return nil, fmt.Errorf("vesting: unknown history driver %q", e.config.HistoryDriver)
}

// buildVaultOpts constructs vesting.Option values from the resolved config.
func (e *Extension) buildVaultOpts() []vesting.Option {
	opts := make([]vesting.Option, 0, len(e.vaultOpts)+5)

	if e.config.Self != "" {
		opts = append(opts, vesting.WithSelf(e.config.Self))
	}
	if e.config.Overfunding != "" {
		opts = append(opts, vesting.WithOverfunding(vesting.OverfundingPolicy(e.config.Overfunding)))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, vesting.WithPluginTimeout(e.config.PluginTimeout))
	}
	if e.history != nil {
		opts = append(opts, vesting.WithPlugin(audithook.New(history.NewRecorder(e.history))))
	}
	if e.config.EnableMetrics {
		factory := observability.NewOTelFactoryFromProvider(otel.GetMeterProvider())
		opts = append(opts, vesting.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through vault options.
	opts = append(opts, e.vaultOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("vesting: configuration is required but not found in config files; " +
				"ensure 'extensions.vesting' or 'vesting' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	if err := e.config.validate(); err != nil {
		return err
	}

	e.Logger().Debug("vesting: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("self", e.config.Self),
		forge.F("overfunding", e.config.Overfunding),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("history_driver", e.config.HistoryDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.vesting", "vesting"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("vesting: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("vesting: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.Overfunding == "" {
		cfg.Overfunding = defaults.Overfunding
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableAudit {
		yamlConfig.DisableAudit = true
	}
	if programmaticConfig.EnableMetrics {
		yamlConfig.EnableMetrics = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.Self == "" {
		yamlConfig.Self = programmaticConfig.Self
	}
	if yamlConfig.Overfunding == "" {
		yamlConfig.Overfunding = programmaticConfig.Overfunding
	}
	if yamlConfig.HistoryDriver == "" {
		yamlConfig.HistoryDriver = programmaticConfig.HistoryDriver
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
