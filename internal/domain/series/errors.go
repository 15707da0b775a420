package series

import "errors"

var (
	// ErrQuery wraps a failed warehouse query. The underlying error is kept
	// in the chain.
	ErrQuery = errors.New("series query failed")
	// ErrNilSource is returned by Load when the loader has no source.
	ErrNilSource = errors.New("series source is nil")
)
