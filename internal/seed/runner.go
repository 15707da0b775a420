package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/pkg/logger"
)

// Writer is the part of the warehouse the seeder needs.
type Writer interface {
	EnsureSchema(ctx context.Context, tables ...string) error
	InsertObservations(ctx context.Context, table string, rows []model.RawObservation) error
}

// Run creates the warehouse tables and fills them with generated series.
// Running it again with the same options rewrites the same rows.
func Run(ctx context.Context, w Writer, opts ...Option) (Stats, error) {
	cfg := newConfig(opts...)
	stats := Stats{StartTime: time.Now()}

	cfg.log.Info(ctx, "seeding warehouse",
		logger.String("priceTable", cfg.PriceTable),
		logger.String("laborTable", cfg.LaborTable),
		logger.String("start", cfg.Start.Format(time.DateOnly)),
		logger.Int("quarters", cfg.Quarters),
	)

	if err := w.EnsureSchema(ctx, cfg.PriceTable, cfg.LaborTable); err != nil {
		return stats, fmt.Errorf("schema: %w", err)
	}

	prices, labor := Generate(cfg)
	if err := w.InsertObservations(ctx, cfg.PriceTable, prices); err != nil {
		return stats, fmt.Errorf("price rows: %w", err)
	}
	stats.PriceRows = len(prices)
	if err := w.InsertObservations(ctx, cfg.LaborTable, labor); err != nil {
		return stats, fmt.Errorf("labor rows: %w", err)
	}
	stats.LaborRows = len(labor)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	cfg.log.Info(ctx, "warehouse seeded",
		logger.Int("priceRows", stats.PriceRows),
		logger.Int("laborRows", stats.LaborRows),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}
