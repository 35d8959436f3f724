package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/api"
	audithook "github.com/xraph/vesting/audit_hook"
	"github.com/xraph/vesting/history"
	historymemory "github.com/xraph/vesting/history/memory"
	"github.com/xraph/vesting/observability"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/store/postgres"
	"github.com/xraph/vesting/store/redis"
	"github.com/xraph/vesting/transfer/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := LoadConfig(cmd)
		if err != nil {
			return err
		}
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		logger, sync, err := newLogger(jsonLogs)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}

	tok, err := newToken(cfg)
	if err != nil {
		return err
	}
	dispatcher := token.NewDispatcher(tok, cfg.Vault.Self,
		token.WithLogger(logger),
		token.WithBuffer(cfg.Token.Buffer),
	)

	trail := historymemory.New()
	opts := []vesting.Option{
		vesting.WithLogger(logger),
		vesting.WithSelf(cfg.Vault.Self),
		vesting.WithOverfunding(vesting.OverfundingPolicy(cfg.Vault.Overfunding)),
		vesting.WithPluginTimeout(cfg.Vault.PluginTimeout),
		vesting.WithPlugin(audithook.New(history.NewRecorder(trail), audithook.WithLogger(logger))),
	}
	if cfg.Vault.Metrics {
		factory := observability.NewOTelFactoryFromProvider(otel.GetMeterProvider())
		opts = append(opts, vesting.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	vault := vesting.New(st, dispatcher, opts...)
	dispatcher.Bind(vault.Reconciler())

	if err := vault.Start(ctx); err != nil {
		return err
	}
	dispatcher.Start(context.WithoutCancel(ctx))

	srv := api.New(vault, apiOptions(cfg, logger)...)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.Listen) }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	// Queued transfers are delivered and reconciled before the store closes.
	dispatcher.Stop()

	return errors.Join(err, shutdownErr, vault.Stop())
}

func apiOptions(cfg *Config, logger *slog.Logger) []api.Option {
	opts := []api.Option{api.WithLogger(logger), api.WithBasePath(cfg.BasePath)}
	if len(cfg.Auth.Clients) > 0 {
		opts = append(opts, api.WithAuthenticator(api.StaticKeys(cfg.Auth.Clients)))
	}
	if cfg.Auth.TrustCallerHeader {
		logger.Warn("trusting the caller header, the api must sit behind an authenticating proxy")
		opts = append(opts, api.WithTrustedCallerHeader())
	}
	return opts
}

func openStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "redis":
		return redis.Open(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithNamespace(cfg.RedisNamespace)), nil
	case "postgres":
		s, err := postgres.Open(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	}
	return memory.New(), nil
}

func newToken(cfg *Config) (*token.Token, error) {
	supply, err := vesting.ParseAmount(cfg.Token.Supply)
	if err != nil {
		return nil, fmt.Errorf("token.supply: %w", err)
	}
	tok := token.New(cfg.Token.ID)
	tok.Mint(cfg.Vault.Self, supply)
	for _, account := range cfg.Token.Accounts {
		tok.Register(account)
	}
	return tok, nil
}
