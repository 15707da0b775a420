package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ECONGPT_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ECONGPT_CONFIG is set
//  3. env (prefix ECONGPT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ECONGPT_WAREHOUSE_DSN -> warehouse_dsn. Underscores are kept so the
	// keys match the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a
// component at first use.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WarehouseDriver != DriverSQLite && c.WarehouseDriver != DriverMySQL:
		return fmt.Errorf("%w: unsupported warehouse_driver %q", ErrInvalidConfig, c.WarehouseDriver)
	case c.WarehouseDSN == "":
		return fmt.Errorf("%w: warehouse_dsn must not be empty", ErrInvalidConfig)
	case c.CompletionProvider != ProviderOpenAI && c.CompletionProvider != ProviderGemini:
		return fmt.Errorf("%w: unsupported completion_provider %q", ErrInvalidConfig, c.CompletionProvider)
	case c.SeriesLag < 1:
		return fmt.Errorf("%w: series_lag must be at least 1", ErrInvalidConfig)
	case c.RateLimitCeiling < 1:
		return fmt.Errorf("%w: rate_limit_ceiling must be at least 1", ErrInvalidConfig)
	case c.CompletionMaxTokens < 1:
		return fmt.Errorf("%w: completion_max_tokens must be at least 1", ErrInvalidConfig)
	}
	return nil
}
