// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat snake_case koanf keys so env vars map 1:1 (ECONGPT_WAREHOUSE_DSN -> warehouse_dsn).
// - Provide New() to build a Config with defaults.
// - Load errors wrap ErrLoadConfig, validation errors wrap ErrInvalidConfig.
package config

import "time"

// Supported warehouse drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Warehouse connection. DSN format depends on the driver.
	WarehouseDriver       string `koanf:"warehouse_driver"`
	WarehouseDSN          string `koanf:"warehouse_dsn"`
	WarehousePriceTable   string `koanf:"warehouse_price_table"`
	WarehouseLaborTable   string `koanf:"warehouse_labor_table"`
	WarehouseMaxOpenConns int    `koanf:"warehouse_max_open_conns"`
	WarehouseQueryTimeout int    `koanf:"warehouse_query_timeout_ms"`
	// WarehouseConnMaxLifetime recycles pooled connections, in seconds.
	WarehouseConnMaxLifetime int `koanf:"warehouse_conn_max_lifetime_seconds"`

	// SeriesLag is the lookback, in periods, of the year-over-year transform.
	SeriesLag int `koanf:"series_lag"`

	// Completion service. Empty base URL and model select the provider defaults.
	CompletionProvider         string  `koanf:"completion_provider"`
	CompletionAPIKey           string  `koanf:"completion_api_key"`
	CompletionBaseURL          string  `koanf:"completion_base_url"`
	CompletionModel            string  `koanf:"completion_model"`
	CompletionTimeoutMS        int     `koanf:"completion_timeout_ms"`
	CompletionTemperature      float64 `koanf:"completion_temperature"`
	CompletionMaxTokens        int     `koanf:"completion_max_tokens"`
	CompletionTopP             float64 `koanf:"completion_top_p"`
	CompletionFrequencyPenalty float64 `koanf:"completion_frequency_penalty"`
	CompletionPresencePenalty  float64 `koanf:"completion_presence_penalty"`

	// RateLimitCeiling is the number of accepted questions per session
	// before the next one is rejected and the counter resets.
	RateLimitCeiling int `koanf:"rate_limit_ceiling"`
	// MaxSessions bounds the in-memory session registry.
	MaxSessions int `koanf:"max_sessions"`

	// Economic table cache. An empty redis URL selects the in-memory cache.
	CacheRedisURL          string `koanf:"cache_redis_url"`
	CacheTTLSeconds        int    `koanf:"cache_ttl_seconds"`
	RefreshIntervalSeconds int    `koanf:"refresh_interval_seconds"`
	// TableLoadTimeoutMS bounds one warehouse load of the economic table.
	TableLoadTimeoutMS int `koanf:"table_load_timeout_ms"`

	// Per-client throttle on POST /api/ask.
	HTTPRequestsPerSecond float64 `koanf:"http_requests_per_second"`
	HTTPBurst             int     `koanf:"http_burst"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",

		WarehouseDriver:       DriverSQLite,
		WarehouseDSN:          "file:econgpt.db?_pragma=busy_timeout(5000)",
		WarehousePriceTable:   "beanipa",
		WarehouseLaborTable:   "blsuslfscps2019",
		WarehouseMaxOpenConns: 4,
		WarehouseQueryTimeout: 15_000,

		WarehouseConnMaxLifetime: 300,

		SeriesLag: 3,

		CompletionProvider:         ProviderOpenAI,
		CompletionTimeoutMS:        60_000,
		CompletionTemperature:      0.9,
		CompletionMaxTokens:        500,
		CompletionTopP:             1,
		CompletionFrequencyPenalty: 0,
		CompletionPresencePenalty:  0,

		RateLimitCeiling: 5,
		MaxSessions:      10_000,

		CacheTTLSeconds:        900,
		RefreshIntervalSeconds: 0,
		TableLoadTimeoutMS:     30_000,

		HTTPRequestsPerSecond: 2,
		HTTPBurst:             5,
	}
}

// WarehouseQueryTimeoutDuration converts the millisecond setting.
func (c *Config) WarehouseQueryTimeoutDuration() time.Duration {
	return time.Duration(c.WarehouseQueryTimeout) * time.Millisecond
}

// WarehouseConnMaxLifetimeDuration converts the seconds setting.
func (c *Config) WarehouseConnMaxLifetimeDuration() time.Duration {
	return time.Duration(c.WarehouseConnMaxLifetime) * time.Second
}

// TableLoadTimeout converts the millisecond setting.
func (c *Config) TableLoadTimeout() time.Duration {
	return time.Duration(c.TableLoadTimeoutMS) * time.Millisecond
}

// CompletionTimeout converts the millisecond setting.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.CompletionTimeoutMS) * time.Millisecond
}

// CacheTTL converts the seconds setting.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RefreshInterval converts the seconds setting. Zero disables refreshing.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}
