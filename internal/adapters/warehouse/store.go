// Package warehouse reads economic observations from a SQL warehouse.
//
// MySQL (github.com/go-sql-driver/mysql) and SQLite (modernc.org/sqlite)
// are supported. All warehouse tables share one layout:
//
//	date, series_name, table_name, indicator_name, frequency, value
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/pkg/logger"
	"github.com/okian/econgpt/pkg/metrics"
)

// Driver names accepted by Open.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

const dateLayout = "2006-01-02"

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be spliced into SQL as a table
// or column name.
func ValidIdentifier(name string) bool {
	return identifierRE.MatchString(name)
}

// Store is a database/sql backed warehouse.
type Store struct {
	db     *sql.DB
	closed atomic.Bool

	maxOpenConns    int
	connMaxLifetime time.Duration
	queryTimeout    time.Duration
	log             logger.Logger
}

// Open connects to the warehouse and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		maxOpenConns:    4,
		connMaxLifetime: 5 * time.Minute,
		log:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		// DATE columns must come back as time.Time.
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s warehouse: %w", driver, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxOpenConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s warehouse: %w", driver, err)
	}
	s.db = db

	s.log.Info(ctx, "warehouse connected",
		logger.String("driver", driver),
		logger.Int("maxOpenConns", s.maxOpenConns),
	)
	return s, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.PingContext(ctx)
}

// Close releases the pool. It is safe to call more than once.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// selectQuery renders the query for sel after validating its identifiers.
func selectQuery(sel model.Selector) (string, []any, error) {
	if !ValidIdentifier(sel.Table) {
		return "", nil, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, sel.Table)
	}
	var b strings.Builder
	b.WriteString("SELECT date, value FROM ")
	b.WriteString(sel.Table)
	args := make([]any, 0, len(sel.Filters))
	for i, f := range sel.Filters {
		if !ValidIdentifier(f.Column) {
			return "", nil, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, f.Column)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(f.Column)
		b.WriteString(" = ?")
		args = append(args, f.Value)
	}
	b.WriteString(" ORDER BY date")
	return b.String(), args, nil
}

// Observations returns the (date, value) rows matching sel, ordered by date.
func (s *Store) Observations(ctx context.Context, sel model.Selector) ([]model.Observation, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	query, args, err := selectQuery(sel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordWarehouseError(sel.Table)
		return nil, fmt.Errorf("query %s: %w", sel.Table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Observation
	for rows.Next() {
		var (
			rawDate any
			value   sql.NullFloat64
		)
		if err := rows.Scan(&rawDate, &value); err != nil {
			metrics.RecordWarehouseError(sel.Table)
			return nil, fmt.Errorf("scan %s: %w", sel.Table, err)
		}
		d, err := toDate(rawDate)
		if err != nil {
			metrics.RecordWarehouseError(sel.Table)
			return nil, fmt.Errorf("scan %s: %w", sel.Table, err)
		}
		out = append(out, model.Observation{Date: d, Value: value.Float64, Null: !value.Valid})
	}
	if err := rows.Err(); err != nil {
		metrics.RecordWarehouseError(sel.Table)
		return nil, fmt.Errorf("iterate %s: %w", sel.Table, err)
	}

	elapsed := time.Since(start)
	metrics.RecordWarehouseQuery(sel.Table, len(out), float64(elapsed.Milliseconds()))
	s.log.Debug(ctx, "warehouse query",
		logger.String("table", sel.Table),
		logger.Int("filters", len(sel.Filters)),
		logger.Int("rows", len(out)),
		logger.Duration("elapsed", elapsed),
	)
	return out, nil
}

// toDate normalises the date representations returned by the drivers.
func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		return parseDate(d)
	case []byte:
		return parseDate(string(d))
	case nil:
		return time.Time{}, fmt.Errorf("%w: null", ErrInvalidDate)
	}
	return time.Time{}, fmt.Errorf("%w: unexpected type %T", ErrInvalidDate, v)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
