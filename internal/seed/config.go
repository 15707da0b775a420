package seed

import (
	"time"

	"github.com/okian/econgpt/internal/domain/series"
	"github.com/okian/econgpt/pkg/logger"
)

// Config holds the shape of the generated data.
type Config struct {
	PriceTable string    // warehouse table holding price index and GDP rows
	LaborTable string    // warehouse table holding the unemployment rate
	Start      time.Time // first quarter
	Quarters   int       // number of quarters per series
	Seed       uint64    // PRNG seed, equal seeds give equal data

	log logger.Logger
}

// Stats summarises a seeding run.
type Stats struct {
	PriceRows int
	LaborRows int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Option applies a configuration option to Config.
type Option func(*Config)

// WithTables sets the destination warehouse tables.
func WithTables(price, labor string) Option {
	return func(c *Config) {
		if price != "" {
			c.PriceTable = price
		}
		if labor != "" {
			c.LaborTable = labor
		}
	}
}

// WithStart sets the first generated quarter. The date is truncated to the
// first day of its quarter.
func WithStart(t time.Time) Option {
	return func(c *Config) {
		if !t.IsZero() {
			c.Start = quarterStart(t)
		}
	}
}

// WithQuarters sets the number of generated quarters.
func WithQuarters(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Quarters = n
		}
	}
}

// WithSeed sets the PRNG seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithLogger sets the logger used by Run.
func WithLogger(log logger.Logger) Option {
	return func(c *Config) {
		if log != nil {
			c.log = log
		}
	}
}

func newConfig(opts ...Option) Config {
	c := Config{
		PriceTable: series.DefaultPriceTable,
		LaborTable: series.DefaultLaborTable,
		Start:      time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		Quarters:   96,
		Seed:       1,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func quarterStart(t time.Time) time.Time {
	t = t.UTC()
	m := ((int(t.Month())-1)/3)*3 + 1
	return time.Date(t.Year(), time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}
