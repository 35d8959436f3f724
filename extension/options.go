package extension

import (
	"github.com/xraph/grove"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/api"
	"github.com/xraph/vesting/history"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/store"
	storemongo "github.com/xraph/vesting/store/mongo"
	"github.com/xraph/vesting/transfer"
)

// Option configures the Vesting Forge extension.
type Option func(*Extension)

// WithAuthenticator sets how the HTTP routes authenticate callers. Without
// it mutating routes reject every request.
func WithAuthenticator(a api.Authenticator) Option {
	return func(e *Extension) {
		e.apiOpts = append(e.apiOpts, api.WithAuthenticator(a))
	}
}

// WithStore sets the store for the vault.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithMongoStore keeps vault state in the MongoDB database behind db.
func WithMongoStore(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = storemongo.New(db)
	}
}

// WithTransfer sets the transfer service the vault pays out through. A
// service that also implements Worker is bound to the vault's reconciler and
// started and stopped with the extension.
func WithTransfer(t transfer.Service) Option {
	return func(e *Extension) {
		e.transfers = t
	}
}

// WithVaultOption passes a vesting.Option through to the underlying vault.
func WithVaultOption(opt vesting.Option) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, opt)
	}
}

// WithPlugin registers a vault plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vesting.WithPlugin(p))
	}
}

// WithHistory sets the audit history store.
func WithHistory(s history.Store) Option {
	return func(e *Extension) {
		e.history = s
	}
}

// WithGroveHistory keeps the audit history in db. driver is "sqlite",
// "postgres" or "mongo" and must match the driver db was opened with.
func WithGroveHistory(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.HistoryDriver = driver
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents building the HTTP API.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for vesting routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMetrics registers the OpenTelemetry metrics plugin.
func WithMetrics() Option {
	return func(e *Extension) { e.config.EnableMetrics = true }
}
