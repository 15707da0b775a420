package types

import "errors"

// ErrUnknownIndicator is returned when an indicator name is not recognised.
var ErrUnknownIndicator = errors.New("unknown indicator")
