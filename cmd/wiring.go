package main

import (
	"context"
	"fmt"

	"github.com/okian/econgpt/internal/adapters/cache"
	"github.com/okian/econgpt/internal/adapters/completion"
	"github.com/okian/econgpt/internal/adapters/warehouse"
	service "github.com/okian/econgpt/internal/app"
	"github.com/okian/econgpt/internal/config"
	"github.com/okian/econgpt/internal/domain/persona"
	"github.com/okian/econgpt/internal/domain/series"
	"github.com/okian/econgpt/pkg/logger"
)

func openWarehouse(ctx context.Context, cfg *config.Config) (*warehouse.Store, error) {
	return warehouse.Open(ctx, cfg.WarehouseDriver, cfg.WarehouseDSN,
		warehouse.WithMaxOpenConns(cfg.WarehouseMaxOpenConns),
		warehouse.WithConnMaxLifetime(cfg.WarehouseConnMaxLifetimeDuration()),
		warehouse.WithQueryTimeout(cfg.WarehouseQueryTimeoutDuration()),
		warehouse.WithLogger(logger.Named("warehouse")),
	)
}

func newLoader(cfg *config.Config, src series.Source) *series.Loader {
	return series.NewLoader(src,
		series.WithLag(cfg.SeriesLag),
		series.WithPriceTable(cfg.WarehousePriceTable),
		series.WithLaborTable(cfg.WarehouseLaborTable),
		series.WithLogger(logger.Named("series")),
	)
}

func newResponder(ctx context.Context, cfg *config.Config) (*persona.Responder, error) {
	completer, err := completion.New(ctx, cfg.CompletionProvider,
		completion.WithAPIKey(cfg.CompletionAPIKey),
		completion.WithBaseURL(cfg.CompletionBaseURL),
		completion.WithModel(cfg.CompletionModel),
		completion.WithTimeout(cfg.CompletionTimeout()),
		completion.WithLogger(logger.Named("completion")),
	)
	if err != nil {
		return nil, fmt.Errorf("completion client: %w", err)
	}
	return persona.NewResponder(completer,
		persona.WithCeiling(cfg.RateLimitCeiling),
		persona.WithModel(cfg.CompletionModel),
		persona.WithSampling(
			cfg.CompletionTemperature,
			cfg.CompletionMaxTokens,
			cfg.CompletionTopP,
			cfg.CompletionFrequencyPenalty,
			cfg.CompletionPresencePenalty,
		),
		persona.WithLogger(logger.Named("persona")),
	), nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.CacheRedisURL == "" {
		return cache.NewMemory(cache.WithTTL(cfg.CacheTTL())), nil
	}
	return cache.NewRedis(ctx, cfg.CacheRedisURL, cache.WithTTL(cfg.CacheTTL()))
}

// newService wires the warehouse, cache and responder into a started
// service. The returned cleanup stops the service and closes the warehouse.
func newService(ctx context.Context, cfg *config.Config) (*service.Service, func(), error) {
	store, err := openWarehouse(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	responder, err := newResponder(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	tableCache, err := newCache(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("table cache: %w", err)
	}

	svc := service.New(
		service.WithLoader(newLoader(cfg, store)),
		service.WithCache(tableCache),
		service.WithResponder(responder),
		service.WithMaxSessions(cfg.MaxSessions),
		service.WithRefreshInterval(cfg.RefreshInterval()),
		service.WithLoadTimeout(cfg.TableLoadTimeout()),
		service.WithLogger(logger.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		_ = tableCache.Close()
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, func() {
		svc.Stop()
		_ = store.Close()
	}, nil
}
