// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/singleflight"

	"github.com/okian/econgpt/internal/adapters/cache"
	"github.com/okian/econgpt/internal/domain/persona"
	"github.com/okian/econgpt/internal/domain/session"
	"github.com/okian/econgpt/internal/domain/types"
	"github.com/okian/econgpt/pkg/logger"
	"github.com/okian/econgpt/pkg/metrics"
)

const tableKey = "economic_table"

// ErrNotConfigured is returned when a required component was not supplied.
var ErrNotConfigured = errors.New("service component not configured")

// TableLoader builds the economic table from the warehouse.
type TableLoader interface {
	Load(ctx context.Context) (types.Table, error)
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	loader    TableLoader
	cache     cache.Cache
	registry  session.Registry
	responder *persona.Responder
	flight    singleflight.Group
	scheduler *gocron.Scheduler

	// Configuration
	refreshInterval time.Duration
	loadTimeout     time.Duration
	maxSessions     int

	// State
	started     bool
	startedAt   time.Time
	lastLoad    time.Time
	lastLoadErr string
	lastRows    int

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLoader sets the economic table loader.
func WithLoader(l TableLoader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithCache sets the table cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithRegistry sets the session registry.
func WithRegistry(r session.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithResponder sets the persona responder.
func WithResponder(r *persona.Responder) Option {
	return func(s *Service) {
		if r != nil {
			s.responder = r
		}
	}
}

// WithRefreshInterval reloads the table into the cache every d. Zero
// disables background refreshing.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithLoadTimeout bounds one warehouse load. Zero leaves the load unbounded.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.loadTimeout = d
		}
	}
}

// WithMaxSessions bounds the default session registry.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		s.maxSessions = n
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxSessions: 10_000,
		loadTimeout: 30 * time.Second,
		logger:      nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	if s.registry == nil {
		s.registry = session.NewInMemoryRegistry(session.WithMaxSize(s.maxSessions))
	}

	return s
}

// Start validates the wiring and starts the refresher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.loader == nil {
		return fmt.Errorf("%w: loader", ErrNotConfigured)
	}
	if s.responder == nil {
		return fmt.Errorf("%w: responder", ErrNotConfigured)
	}

	s.logger.Info(ctx, "starting econgpt service...")

	if s.refreshInterval > 0 {
		s.scheduler = gocron.NewScheduler(time.UTC)
		s.scheduler.SingletonModeAll()
		if _, err := s.scheduler.Every(s.refreshInterval).Do(s.refreshJob); err != nil {
			return err
		}
		s.scheduler.StartAsync()
		s.logger.Info(ctx, "table refresher scheduled", logger.Duration("interval", s.refreshInterval))
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "econgpt service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.Int("ceiling", s.responder.Ceiling()),
	)

	return nil
}

// Stop shuts down the refresher and closes the cache.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping econgpt service...")

	if s.scheduler != nil {
		s.scheduler.Stop()
		s.scheduler = nil
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Warn(context.Background(), "cache close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(context.Background(), "econgpt service stopped")
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}

// refreshJob runs on the scheduler goroutine.
func (s *Service) refreshJob() {
	ctx := context.Background()
	if _, err := s.Refresh(ctx); err != nil {
		s.log().Warn(ctx, "scheduled table refresh failed", logger.Error(err))
	}
}

// EconomicTable returns the cached table or loads it. Concurrent misses
// share one warehouse load. Cache failures are logged and treated as a
// miss.
func (s *Service) EconomicTable(ctx context.Context) (types.Table, error) {
	table, ok, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		metrics.RecordTableCache("error")
		s.log().Warn(ctx, "table cache read failed", logger.Error(err))
	case ok:
		metrics.RecordTableCache("hit")
		return table, nil
	default:
		metrics.RecordTableCache("miss")
	}
	return s.Refresh(ctx)
}

// Refresh loads the table from the warehouse and stores it in the cache.
func (s *Service) Refresh(ctx context.Context) (types.Table, error) {
	if s.loader == nil {
		return nil, ErrNotConfigured
	}
	v, err, _ := s.flight.Do(tableKey, func() (interface{}, error) {
		// Coalesced callers share this load, so it must outlive the caller
		// that started it.
		ctx := context.WithoutCancel(ctx)
		if s.loadTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.loadTimeout)
			defer cancel()
		}
		table, err := s.loader.Load(ctx)
		s.recordLoad(table, err)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, table); err != nil {
			s.log().Warn(ctx, "table cache write failed", logger.Error(err))
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(types.Table), nil
}

func (s *Service) recordLoad(table types.Table, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLoad = time.Now()
	if err != nil {
		s.lastLoadErr = err.Error()
		return
	}
	s.lastLoadErr = ""
	s.lastRows = len(table)
}

// Session returns the session for id, creating one when needed.
func (s *Service) Session(ctx context.Context, id string) (*persona.Session, bool) {
	return s.registry.GetOrCreate(ctx, id)
}

// Personas lists the selectable economists.
func (s *Service) Personas() []string {
	return persona.Personas()
}

// Ask forwards a question for one persona slot of a session.
func (s *Service) Ask(ctx context.Context, sess *persona.Session, slot int, question, who string) (persona.Result, error) {
	if s.responder == nil {
		return persona.Result{}, ErrNotConfigured
	}
	return s.responder.Ask(ctx, sess, slot, question, who)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()

	stats := map[string]interface{}{
		"started":         s.started,
		"sessions":        s.registry.Size(),
		"maxSessions":     s.maxSessions,
		"refreshInterval": s.refreshInterval.String(),
		"tableRows":       s.lastRows,
		"goroutines":      goroutines,
	}
	if s.responder != nil {
		stats["rateLimitCeiling"] = s.responder.Ceiling()
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	if !s.lastLoad.IsZero() {
		stats["lastLoad"] = s.lastLoad.UTC().Format(time.RFC3339)
	}
	if s.lastLoadErr != "" {
		stats["lastLoadError"] = s.lastLoadErr
	}

	// Update metrics
	metrics.UpdateActiveSessions(int(s.registry.Size()))
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(goroutines)

	return stats
}
