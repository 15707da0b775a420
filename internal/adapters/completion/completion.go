// Package completion talks to remote text completion services.
package completion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/pkg/logger"
	"github.com/okian/econgpt/pkg/metrics"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const defaultTimeout = time.Minute

// Completer sends a prompt and returns the generated text.
type Completer interface {
	Complete(ctx context.Context, req model.CompletionRequest) (string, error)
}

// New builds the client for provider.
func New(ctx context.Context, provider string, opts ...Option) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch provider {
	case ProviderOpenAI:
		c, err = NewOpenAI(opts...)
	case ProviderGemini:
		c, err = NewGemini(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newSettings(baseURL, model string, opts []Option) settings {
	s := settings{
		baseURL: baseURL,
		model:   model,
		timeout: defaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: s.timeout}
	}
	return s
}

// observe records the outcome of one call.
func observe(provider string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordCompletion(provider, outcome, float64(time.Since(start).Milliseconds()))
}
