package cache

import (
	"context"
	"sync"
	"time"

	"github.com/okian/econgpt/internal/domain/types"
)

// Memory is a single-slot in-process cache with expiry.
type Memory struct {
	mu      sync.RWMutex
	cfg     settings
	table   types.Table
	expires time.Time
	set     bool
}

// NewMemory creates an empty in-memory cache.
func NewMemory(opts ...Option) *Memory {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memory{cfg: cfg}
}

func (m *Memory) Get(_ context.Context) (types.Table, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set || !m.cfg.now().Before(m.expires) {
		return nil, false, nil
	}
	out := make(types.Table, len(m.table))
	copy(out, m.table)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, table types.Table) error {
	cp := make(types.Table, len(table))
	copy(cp, table)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = cp
	m.expires = m.cfg.now().Add(m.cfg.ttl)
	m.set = true
	return nil
}

func (m *Memory) Close() error { return nil }
