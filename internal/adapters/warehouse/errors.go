package warehouse

import "errors"

var (
	// ErrUnsupportedDriver is returned by Open for an unknown driver name.
	ErrUnsupportedDriver = errors.New("unsupported warehouse driver")
	// ErrInvalidIdentifier is returned when a table or column name is not
	// a plain SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
	// ErrInvalidDate is returned when a date column cannot be decoded.
	ErrInvalidDate = errors.New("invalid observation date")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("warehouse store closed")
)
