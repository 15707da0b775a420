// Package session keeps the persona sessions of connected browsers.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/okian/econgpt/internal/domain/persona"
	"github.com/okian/econgpt/pkg/metrics"
)

// Registry maps session ids to persona sessions.
type Registry interface {
	// Get returns the session for id and marks it as recently used.
	Get(ctx context.Context, id string) (*persona.Session, bool)

	// GetOrCreate returns the session for id, creating it when missing. An
	// empty or unknown id yields a new session with a freshly generated id,
	// never the one passed in; created reports whether that happened.
	GetOrCreate(ctx context.Context, id string) (s *persona.Session, created bool)

	// Remove drops the session for id.
	Remove(ctx context.Context, id string)

	Size() int64
}

// node is an entry of the recency list.
type node struct {
	id   string
	sess *persona.Session
	prev *node
	next *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.id = ""
	n.sess = nil
	n.prev = nil
	n.next = nil
}

// inMemoryRegistry implements Registry with a map and a doubly linked
// recency list. For bounded mode (maxSize > 0) the least recently used
// session is evicted when a new one would exceed the bound.
type inMemoryRegistry struct {
	mu       sync.Mutex
	byID     map[string]*node
	head     *node // most recently used
	tail     *node // least recently used
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
	newID    func() string
}

// NewInMemoryRegistry creates a new in-memory registry with configuration options.
func NewInMemoryRegistry(opts ...Option) Registry {
	r := &inMemoryRegistry{
		maxSize: 10000,
		newID:   uuid.NewString,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.byID = make(map[string]*node)
	r.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}

	return r
}

func (r *inMemoryRegistry) Get(_ context.Context, id string) (*persona.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	r.moveToFront(n)
	return n.sess, true
}

func (r *inMemoryRegistry) GetOrCreate(_ context.Context, id string) (*persona.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.byID[id]; ok && id != "" {
		r.moveToFront(n)
		return n.sess, false
	}

	// Ids are only ever issued here; a caller-supplied id is never adopted.
	id = r.newID()
	for _, taken := r.byID[id]; taken; _, taken = r.byID[id] {
		id = r.newID()
	}
	if r.maxSize > 0 && len(r.byID) >= r.maxSize {
		r.evictLRU()
	}

	n := r.nodePool.Get().(*node)
	n.id = id
	n.sess = persona.NewSession(id)
	r.pushFront(n)
	r.byID[id] = n
	metrics.UpdateActiveSessions(int(r.size.Add(1)))
	return n.sess, true
}

func (r *inMemoryRegistry) Remove(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok {
		return
	}
	r.drop(n)
}

// Size returns the current number of sessions.
func (r *inMemoryRegistry) Size() int64 {
	return r.size.Load()
}

// pushFront links n as the most recent entry. Must be called with r.mu held.
func (r *inMemoryRegistry) pushFront(n *node) {
	n.prev = nil
	n.next = r.head
	if r.head != nil {
		r.head.prev = n
	}
	r.head = n
	if r.tail == nil {
		r.tail = n
	}
}

// unlink detaches n from the list. Must be called with r.mu held.
func (r *inMemoryRegistry) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		r.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		r.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (r *inMemoryRegistry) moveToFront(n *node) {
	if r.head == n {
		return
	}
	r.unlink(n)
	r.pushFront(n)
}

// drop removes n from the map and list and returns it to the pool.
// Must be called with r.mu held.
func (r *inMemoryRegistry) drop(n *node) {
	delete(r.byID, n.id)
	r.unlink(n)
	n.reset()
	r.nodePool.Put(n)
	metrics.UpdateActiveSessions(int(r.size.Add(-1)))
}

// evictLRU removes the least recently used session.
// Must be called with r.mu held.
func (r *inMemoryRegistry) evictLRU() {
	if r.tail == nil {
		return
	}
	r.drop(r.tail)
}
