package persona

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/pkg/logger"
	"github.com/okian/econgpt/pkg/metrics"
)

// Default sampling parameters.
const (
	DefaultCeiling          = 5
	DefaultTemperature      = 0.9
	DefaultMaxTokens        = 500
	DefaultTopP             = 1.0
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0
)

// Ask outcomes recorded as metrics.
const (
	OutcomeAnswered    = "answered"
	OutcomeEmpty       = "empty_question"
	OutcomeRateLimited = "rate_limited"
	OutcomeCompletion  = "completion_error"
	OutcomeInvalid     = "invalid"
)

// Completer sends a prompt to a text completion backend.
type Completer interface {
	Complete(ctx context.Context, req model.CompletionRequest) (string, error)
}

// Result describes the slot after an Ask.
type Result struct {
	Slot      int    `json:"slot"`
	Persona   string `json:"persona"`
	Answer    string `json:"answer"`
	Error     string `json:"error"`
	LastError string `json:"last_error"`
	Requests  int    `json:"requests"`
}

// Option applies a configuration option to the Responder.
type Option func(*Responder)

// WithCeiling sets the number of accepted questions per session before the
// next one is rejected.
func WithCeiling(n int) Option {
	return func(r *Responder) {
		if n > 0 {
			r.ceiling = n
		}
	}
}

// WithModel sets the model name passed to the completer.
func WithModel(name string) Option {
	return func(r *Responder) {
		r.template.Model = name
	}
}

// WithSampling sets the sampling parameters passed to the completer.
func WithSampling(temperature float64, maxTokens int, topP, frequencyPenalty, presencePenalty float64) Option {
	return func(r *Responder) {
		r.template.Temperature = temperature
		if maxTokens > 0 {
			r.template.MaxTokens = maxTokens
		}
		r.template.TopP = topP
		r.template.FrequencyPenalty = frequencyPenalty
		r.template.PresencePenalty = presencePenalty
	}
}

// WithLogger sets a custom logger for the responder.
func WithLogger(log logger.Logger) Option {
	return func(r *Responder) {
		if log != nil {
			r.log = log
		}
	}
}

// Responder answers persona questions on behalf of sessions.
type Responder struct {
	completer Completer
	ceiling   int
	template  model.CompletionRequest
	log       logger.Logger
}

// NewResponder creates a responder backed by completer.
func NewResponder(completer Completer, opts ...Option) *Responder {
	r := &Responder{
		completer: completer,
		ceiling:   DefaultCeiling,
		template: model.CompletionRequest{
			Temperature:      DefaultTemperature,
			MaxTokens:        DefaultMaxTokens,
			TopP:             DefaultTopP,
			FrequencyPenalty: DefaultFrequencyPenalty,
			PresencePenalty:  DefaultPresencePenalty,
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ceiling returns the configured request ceiling.
func (r *Responder) Ceiling() int { return r.ceiling }

// Ask asks persona the question and stores the trimmed answer in the slot.
//
// A blank question is rejected before the ceiling is checked and never
// touches the counter. Once the counter reaches the ceiling the question is
// rejected and the counter restarts at 1. A failed completion records the
// error and leaves the previous answer in place. Rejections are returned as
// ErrEmptyQuestion, ErrRateLimited or ErrCompletion together with the slot
// state.
func (r *Responder) Ask(ctx context.Context, s *Session, slot int, question, persona string) (Result, error) {
	if s == nil {
		return Result{}, ErrNilSession
	}
	if slot < 0 || slot >= Slots {
		metrics.RecordAskOutcome(OutcomeInvalid)
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if !Known(persona) {
		metrics.RecordAskOutcome(OutcomeInvalid)
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownPersona, persona)
	}

	question = strings.TrimSpace(question)

	s.mu.Lock()
	if question == "" {
		s.setErrorLocked(slot, MsgEmptyQuestion)
		res := resultLocked(s, slot)
		s.mu.Unlock()
		metrics.RecordAskOutcome(OutcomeEmpty)
		return res, ErrEmptyQuestion
	}
	if s.requests >= r.ceiling {
		s.setErrorLocked(slot, MsgRateLimited)
		s.requests = 1
		res := resultLocked(s, slot)
		s.mu.Unlock()
		metrics.RecordAskOutcome(OutcomeRateLimited)
		r.log.Info(ctx, "session request ceiling reached",
			logger.String("session", s.id),
			logger.Int("ceiling", r.ceiling),
		)
		return res, ErrRateLimited
	}
	s.slots[slot].Error = ""
	s.lastError = ""
	s.requests++
	s.updatedAt = time.Now()
	s.mu.Unlock()

	req := r.template
	req.Prompt = Prompt(persona, question)
	text, err := r.completer.Complete(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.setErrorLocked(slot, fmt.Sprintf(MsgCompletion, err))
		metrics.RecordAskOutcome(OutcomeCompletion)
		r.log.Warn(ctx, "completion failed",
			logger.String("session", s.id),
			logger.Int("slot", slot),
			logger.String("persona", persona),
			logger.Error(err),
		)
		return resultLocked(s, slot), fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	s.slots[slot].Persona = persona
	s.slots[slot].Answer = strings.TrimSpace(text)
	s.updatedAt = time.Now()
	metrics.RecordAskOutcome(OutcomeAnswered)
	r.log.Debug(ctx, "persona answered",
		logger.String("session", s.id),
		logger.Int("slot", slot),
		logger.String("persona", persona),
		logger.Int("requests", s.requests),
	)
	return resultLocked(s, slot), nil
}

func resultLocked(s *Session, slot int) Result {
	st := s.slots[slot]
	return Result{
		Slot:      slot,
		Persona:   st.Persona,
		Answer:    st.Answer,
		Error:     st.Error,
		LastError: s.lastError,
		Requests:  s.requests,
	}
}
