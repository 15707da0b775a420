package persona

import "errors"

var (
	// ErrInvalidSlot is returned for a slot index outside [0, Slots).
	ErrInvalidSlot = errors.New("invalid persona slot")
	// ErrUnknownPersona is returned for a label not in Personas().
	ErrUnknownPersona = errors.New("unknown persona")
	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("empty question")
	// ErrRateLimited is returned when the session reached its ceiling.
	ErrRateLimited = errors.New("session request ceiling reached")
	// ErrCompletion wraps a failure of the completion backend.
	ErrCompletion = errors.New("completion failed")
	// ErrNilSession is returned when Ask receives no session.
	ErrNilSession = errors.New("session is nil")
)
