package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/pkg/logger"
)

// Defaults of the OpenAI client.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-3.5-turbo-instruct"
)

const maxErrorBody = 4 << 10

// OpenAI calls the legacy text completion endpoint of an OpenAI
// compatible API.
type OpenAI struct {
	cfg settings
}

type openAIRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

type openAIResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *openAIError `json:"error"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAI creates an OpenAI client. An API key is required.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := newSettings(DefaultOpenAIBaseURL, DefaultOpenAIModel, opts)
	if cfg.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")
	return &OpenAI{cfg: cfg}, nil
}

// Complete posts the prompt to {base}/completions and returns the text of
// the first choice.
func (c *OpenAI) Complete(ctx context.Context, req model.CompletionRequest) (text string, err error) {
	start := time.Now()
	defer func() { observe(ProviderOpenAI, start, err) }()

	body := openAIRequest{
		Model:            req.Model,
		Prompt:           req.Prompt,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	}
	if body.Model == "" {
		body.Model = c.cfg.model
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.baseURL+"/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.apiKey)

	resp, err := c.cfg.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		var parsed openAIResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		c.cfg.log.Warn(ctx, "completion request rejected",
			logger.Int("status", resp.StatusCode),
			logger.String("model", body.Model),
		)
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUpstream, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.cfg.log.Debug(ctx, "completion received",
		logger.String("model", body.Model),
		logger.String("finishReason", out.Choices[0].FinishReason),
		logger.Duration("elapsed", time.Since(start)),
	)
	return out.Choices[0].Text, nil
}
