package warehouse

import (
	"context"
	"fmt"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/pkg/logger"
)

const createTable = `CREATE TABLE IF NOT EXISTS %s (
	date DATE NOT NULL,
	series_name VARCHAR(255) NOT NULL DEFAULT '',
	table_name VARCHAR(255) NOT NULL DEFAULT '',
	indicator_name VARCHAR(255) NOT NULL DEFAULT '',
	frequency VARCHAR(8) NOT NULL DEFAULT '',
	value DOUBLE
)`

// EnsureSchema creates the given warehouse tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context, tables ...string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	for _, t := range tables {
		if !ValidIdentifier(t) {
			return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, t)
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createTable, t)); err != nil {
			return fmt.Errorf("create %s: %w", t, err)
		}
	}
	return nil
}

// InsertObservations writes rows to table in a single transaction. A row
// replaces any stored row with the same date, series, table, indicator and
// frequency, so writing the same batch twice leaves one copy.
func (s *Store) InsertObservations(ctx context.Context, table string, rows []model.RawObservation) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if !ValidIdentifier(table) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	del, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE date = ? AND series_name = ? AND table_name = ? AND indicator_name = ? AND frequency = ?",
		table,
	))
	if err != nil {
		return fmt.Errorf("prepare delete %s: %w", table, err)
	}
	defer func() { _ = del.Close() }()

	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (date, series_name, table_name, indicator_name, frequency, value) VALUES (?, ?, ?, ?, ?, ?)",
		table,
	))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", table, err)
	}
	defer func() { _ = ins.Close() }()

	replaced := int64(0)
	for _, r := range rows {
		date := r.Date.Format(dateLayout)
		res, err := del.ExecContext(ctx, date, r.SeriesName, r.TableName, r.IndicatorName, r.Frequency)
		if err != nil {
			return fmt.Errorf("replace %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			replaced += n
		}

		var value any = r.Value
		if r.Null {
			value = nil
		}
		if _, err := ins.ExecContext(ctx, date, r.SeriesName, r.TableName, r.IndicatorName, r.Frequency, value); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert %s: %w", table, err)
	}
	s.log.Info(ctx, "observations inserted",
		logger.String("table", table),
		logger.Int("rows", len(rows)),
		logger.Int("replaced", int(replaced)),
	)
	return nil
}
