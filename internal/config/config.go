package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Gateway  GatewayConfig
	Server   ServerConfig
	UI       UIConfig
	Behavior BehaviorConfig
}

// GatewayConfig points the client at a GraphQL endpoint.
type GatewayConfig struct {
	Endpoint          string
	Timeout           time.Duration
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// ServerConfig holds development gateway settings.
type ServerConfig struct {
	Addr         string
	DatabasePath string `mapstructure:"database_path"`
	Seed         bool
}

// UIConfig holds presentation settings.
type UIConfig struct {
	LogFile string `mapstructure:"log_file"`
	// Keys binds extra keys per action, e.g. refresh = ["f5"].
	Keys map[string][]string `mapstructure:"keys"`
}

// BehaviorConfig toggles the two form behaviours that are kept as-is by
// default: the authors refetch racing the birth-year mutation, and the pending
// genre surviving "add genre".
type BehaviorConfig struct {
	SequenceRefetch    bool `mapstructure:"sequence_refetch"`
	ClearGenreAfterAdd bool `mapstructure:"clear_genre_after_add"`
}

// Path returns the config file location: $BOOKSHELF_CONFIG or the XDG-ish default.
func Path() string {
	if p := os.Getenv("BOOKSHELF_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "bookshelf", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix BOOKSHELF_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("BOOKSHELF_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "bookshelf"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BOOKSHELF")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	home := os.Getenv("HOME")
	v.SetDefault("gateway.endpoint", "http://localhost:4000/graphql")
	v.SetDefault("gateway.timeout", "10s")
	v.SetDefault("gateway.requests_per_second", 20)
	v.SetDefault("gateway.cache_ttl", "0s")
	v.SetDefault("server.addr", ":4000")
	v.SetDefault("server.database_path", filepath.Join(home, ".local", "share", "bookshelf", "gateway.db"))
	v.SetDefault("server.seed", true)
	v.SetDefault("ui.log_file", filepath.Join(home, ".local", "state", "bookshelf", "bookshelf.log"))
	v.SetDefault("behavior.sequence_refetch", false)
	v.SetDefault("behavior.clear_genre_after_add", false)
}

// Save writes the provided config to Path(), creating the directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("gateway.endpoint", cfg.Gateway.Endpoint)
	v.Set("gateway.timeout", cfg.Gateway.Timeout.String())
	v.Set("gateway.requests_per_second", cfg.Gateway.RequestsPerSecond)
	v.Set("gateway.cache_ttl", cfg.Gateway.CacheTTL.String())
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.database_path", cfg.Server.DatabasePath)
	v.Set("server.seed", cfg.Server.Seed)
	v.Set("ui.log_file", cfg.UI.LogFile)
	if len(cfg.UI.Keys) > 0 {
		v.Set("ui.keys", cfg.UI.Keys)
	}
	v.Set("behavior.sequence_refetch", cfg.Behavior.SequenceRefetch)
	v.Set("behavior.clear_genre_after_add", cfg.Behavior.ClearGenreAfterAdd)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
