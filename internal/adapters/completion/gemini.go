package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/pkg/logger"
)

// DefaultGeminiModel is used when neither the request nor the client names
// a model.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini generates text with the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    settings
}

// NewGemini creates a Gemini client. An API key is required.
func NewGemini(ctx context.Context, opts ...Option) (*Gemini, error) {
	cfg := newSettings("", DefaultGeminiModel, opts)
	if cfg.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.baseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

// Complete sends the prompt as a single user turn and returns the
// concatenated text of the first candidate.
func (g *Gemini) Complete(ctx context.Context, req model.CompletionRequest) (text string, err error) {
	start := time.Now()
	defer func() { observe(ProviderGemini, start, err) }()

	name := req.Model
	if name == "" {
		name = g.cfg.model
	}
	conf := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		TopP:             genai.Ptr(float32(req.TopP)),
		MaxOutputTokens:  int32(req.MaxTokens), //nolint:gosec // bounded by config validation
		FrequencyPenalty: genai.Ptr(float32(req.FrequencyPenalty)),
		PresencePenalty:  genai.Ptr(float32(req.PresencePenalty)),
	}

	resp, err := g.client.Models.GenerateContent(ctx, name, genai.Text(req.Prompt), conf)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoChoices
	}
	out := resp.Text()
	g.cfg.log.Debug(ctx, "completion received",
		logger.String("model", name),
		logger.Int("candidates", len(resp.Candidates)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
