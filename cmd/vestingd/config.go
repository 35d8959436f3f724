package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xraph/vesting/api"
)

// Config is the daemon configuration.
type Config struct {
	Listen   string        `mapstructure:"listen"`
	BasePath string        `mapstructure:"base_path"`
	Shutdown time.Duration `mapstructure:"shutdown_timeout"`
	Store    StoreConfig   `mapstructure:"store"`
	Vault    VaultConfig   `mapstructure:"vault"`
	Token    TokenConfig   `mapstructure:"token"`
	Auth     AuthConfig    `mapstructure:"auth"`
}

// AuthConfig controls how API callers are identified.
type AuthConfig struct {
	// Clients are the API keys accepted on mutating routes, configured as
	// [[auth.clients]] tables with identity and key.
	Clients []api.Client `mapstructure:"clients"`
	// TrustCallerHeader takes the caller from X-Caller-Id instead. Only for
	// deployments behind a proxy that authenticates and sets the header.
	TrustCallerHeader bool `mapstructure:"trust_caller_header"`
}

type StoreConfig struct {
	// Backend is memory, redis or postgres.
	Backend          string `mapstructure:"backend"`
	RedisAddr        string `mapstructure:"redis_addr"`
	RedisPassword    string `mapstructure:"redis_password"`
	RedisDB          int    `mapstructure:"redis_db"`
	RedisNamespace   string `mapstructure:"redis_namespace"`
	PostgresDSN      string `mapstructure:"postgres_dsn"`
	PostgresMaxConns int    `mapstructure:"postgres_max_conns"`
}

type VaultConfig struct {
	Self          string        `mapstructure:"self"`
	Overfunding   string        `mapstructure:"overfunding"`
	PluginTimeout time.Duration `mapstructure:"plugin_timeout"`
	Metrics       bool          `mapstructure:"metrics"`
}

// TokenConfig describes the in-process token the daemon pays out through.
type TokenConfig struct {
	ID string `mapstructure:"id"`
	// Supply is minted to the vault account at startup.
	Supply string `mapstructure:"supply"`
	// Accounts are registered with the token so transfers to them succeed.
	Accounts []string `mapstructure:"accounts"`
	Buffer   int      `mapstructure:"buffer"`
}

// SetDefaults installs the default configuration values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("base_path", "")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_namespace", "vesting")
	v.SetDefault("store.postgres_max_conns", 10)

	v.SetDefault("vault.self", "vesting.vault")
	v.SetDefault("vault.overfunding", "accept")
	v.SetDefault("vault.plugin_timeout", 5*time.Second)

	v.SetDefault("token.id", "token.local")
	v.SetDefault("token.supply", "0")
	v.SetDefault("token.buffer", 1024)

	v.SetDefault("auth.trust_caller_header", false)
}

// newViper builds a viper instance reading defaults, the optional config
// file and VESTING_* environment variables, in increasing precedence.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("VESTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return v, nil
}

// LoadConfig resolves and validates the configuration for cmd.
func LoadConfig(cmd *cobra.Command) (*Config, error) {
	v, err := newViper(cmd)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.Vault.Overfunding {
	case "accept", "reject":
	default:
		return fmt.Errorf("vault.overfunding must be accept or reject, got %q", c.Vault.Overfunding)
	}
	if c.Vault.Self == "" {
		return errors.New("vault.self must not be empty")
	}
	if c.Token.ID == "" {
		return errors.New("token.id must not be empty")
	}
	if len(c.Auth.Clients) == 0 && !c.Auth.TrustCallerHeader {
		return errors.New("auth.clients is required unless auth.trust_caller_header is set")
	}
	seen := make(map[string]struct{}, len(c.Auth.Clients))
	for i, client := range c.Auth.Clients {
		if client.Identity == "" || client.Key == "" {
			return fmt.Errorf("auth.clients[%d] needs both identity and key", i)
		}
		if _, dup := seen[client.Key]; dup {
			return fmt.Errorf("auth.clients[%d] reuses the key of another client", i)
		}
		seen[client.Key] = struct{}{}
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := newViper(cmd)
		if err != nil {
			return err
		}
		if _, err := LoadWithViper(v); err != nil {
			return err
		}
		for _, key := range v.AllKeys() {
			if strings.Contains(key, "password") || strings.Contains(key, "dsn") || strings.HasPrefix(key, "auth.clients") {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = <redacted>\n", key)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, v.Get(key))
		}
		return nil
	},
}
