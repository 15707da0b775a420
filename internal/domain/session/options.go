package session

// Option applies a configuration option to the in-memory registry.
type Option func(*inMemoryRegistry)

// WithMaxSize sets the maximum number of sessions kept in memory.
// If maxSize > 0: bounded mode with least-recently-used eviction.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(r *inMemoryRegistry) {
		r.maxSize = maxSize
	}
}

// WithIDGenerator replaces the UUID generator used for new sessions.
func WithIDGenerator(gen func() string) Option {
	return func(r *inMemoryRegistry) {
		if gen != nil {
			r.newID = gen
		}
	}
}
