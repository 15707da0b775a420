package series

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/internal/domain/types"
	"github.com/okian/econgpt/pkg/logger"
	"github.com/okian/econgpt/pkg/metrics"
)

// Default warehouse tables.
const (
	DefaultPriceTable = "beanipa"
	DefaultLaborTable = "blsuslfscps2019"
)

// Source answers a selector with date ordered observations.
type Source interface {
	Observations(ctx context.Context, sel model.Selector) ([]model.Observation, error)
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLag sets the year-over-year lookback in periods.
func WithLag(lag int) Option {
	return func(l *Loader) {
		if lag > 0 {
			l.lag = lag
		}
	}
}

// WithPriceTable sets the table holding the price index and GDP series.
func WithPriceTable(table string) Option {
	return func(l *Loader) {
		if table != "" {
			l.priceTable = table
		}
	}
}

// WithLaborTable sets the table holding the unemployment series.
func WithLaborTable(table string) Option {
	return func(l *Loader) {
		if table != "" {
			l.laborTable = table
		}
	}
}

// WithLogger sets a custom logger for the loader.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// Loader builds the economic table from a Source.
type Loader struct {
	src        Source
	lag        int
	priceTable string
	laborTable string
	log        logger.Logger
}

// NewLoader creates a loader reading from src.
func NewLoader(src Source, opts ...Option) *Loader {
	l := &Loader{
		src:        src,
		lag:        DefaultLag,
		priceTable: DefaultPriceTable,
		laborTable: DefaultLaborTable,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lag returns the configured lookback.
func (l *Loader) Lag() int { return l.lag }

// Load runs the three series queries concurrently, derives the
// year-over-year rates and joins everything on date. Query failures are
// returned wrapped in ErrQuery.
func (l *Loader) Load(ctx context.Context) (types.Table, error) {
	if l.src == nil {
		return nil, ErrNilSource
	}
	start := time.Now()

	var prices, unemployment, gdp []model.Observation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		prices, err = l.fetch(gctx, "inflation", InflationSelector(l.priceTable))
		return err
	})
	g.Go(func() (err error) {
		unemployment, err = l.fetch(gctx, "unemployment", UnemploymentSelector(l.laborTable))
		return err
	})
	g.Go(func() (err error) {
		gdp, err = l.fetch(gctx, "growth", GrowthSelector(l.priceTable))
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordTableLoad("error", float64(time.Since(start).Milliseconds()))
		l.log.Error(ctx, "economic table load failed", logger.Error(err))
		return nil, err
	}

	table := Join(
		YearOverYear(prices, l.lag),
		Levels(unemployment),
		YearOverYear(gdp, l.lag),
	)

	elapsed := time.Since(start)
	metrics.RecordTableLoad("ok", float64(elapsed.Milliseconds()))
	metrics.UpdateTableRows(len(table))
	l.log.Debug(ctx, "economic table loaded",
		logger.Int("rows", len(table)),
		logger.Int("prices", len(prices)),
		logger.Int("unemployment", len(unemployment)),
		logger.Int("gdp", len(gdp)),
		logger.Duration("elapsed", elapsed),
	)
	return table, nil
}

func (l *Loader) fetch(ctx context.Context, name string, sel model.Selector) ([]model.Observation, error) {
	obs, err := l.src.Observations(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s from %s: %w", ErrQuery, name, sel.Table, err)
	}
	return obs, nil
}
