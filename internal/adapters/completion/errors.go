package completion

import "errors"

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("completion api key not configured")
	// ErrUnsupportedProvider is returned by New for an unknown provider.
	ErrUnsupportedProvider = errors.New("unsupported completion provider")
	// ErrUpstream wraps a non-success response from the provider.
	ErrUpstream = errors.New("completion upstream error")
	// ErrNoChoices is returned when the provider answers without text.
	ErrNoChoices = errors.New("completion returned no choices")
)
