// Package cache keeps the last economic table between warehouse loads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/okian/econgpt/internal/domain/types"
)

// DefaultKey is the redis key of the cached table.
const DefaultKey = "econgpt:economic_table"

// DefaultTTL is how long a cached table stays fresh.
const DefaultTTL = 15 * time.Minute

// ErrCorrupt is returned when a cached payload cannot be decoded.
var ErrCorrupt = errors.New("cached table is corrupt")

// Cache stores one economic table.
type Cache interface {
	// Get returns the cached table. ok is false on a miss or expiry.
	Get(ctx context.Context) (table types.Table, ok bool, err error)
	// Set replaces the cached table.
	Set(ctx context.Context, table types.Table) error
	Close() error
}

type settings struct {
	key string
	ttl time.Duration
	now func() time.Time
}

func defaultSettings() settings {
	return settings{key: DefaultKey, ttl: DefaultTTL, now: time.Now}
}

// Option applies a configuration option to a cache.
type Option func(*settings)

// WithKey sets the redis key.
func WithKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.key = key
		}
	}
}

// WithTTL sets the expiry of cached tables.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for the in-memory cache.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// encode serialises a table as snappy compressed JSON.
func encode(table types.Table) ([]byte, error) {
	raw, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

func decode(data []byte) (types.Table, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	var table types.Table
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return table, nil
}
