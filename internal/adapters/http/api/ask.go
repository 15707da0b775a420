package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/econgpt/internal/domain/persona"
	"github.com/okian/econgpt/pkg/logger"
)

const maxAskBody = 16 << 10

// AskDependencies defines the interface for persona questions.
type AskDependencies interface {
	SessionDependencies
	Ask(ctx context.Context, sess *persona.Session, slot int, question, who string) (persona.Result, error)
}

// AskHandler handles persona question requests.
type AskHandler struct {
	deps    AskDependencies
	cookies sessionCookies
	log     logger.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(deps AskDependencies, secureCookie bool, log logger.Logger) *AskHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AskHandler{deps: deps, cookies: sessionCookies{deps: deps, secure: secureCookie}, log: log}
}

// HandlePostAsk handles POST /api/ask requests. The remote completion is
// only ever triggered from here.
func (h *AskHandler) HandlePostAsk(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_ask"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Slot == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing slot")))
		return
	}

	sess := h.cookies.resolve(w, r)
	ctx := logger.WithFields(r.Context(), logger.String("remote", clientAddr(r)))
	res, err := h.deps.Ask(ctx, sess, *req.Slot, req.Question, req.Persona)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, askResponse{Code: "answered", Result: res})
	case errors.Is(err, persona.ErrInvalidSlot), errors.Is(err, persona.ErrUnknownPersona):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, persona.ErrEmptyQuestion):
		writeJSON(w, http.StatusBadRequest, askResponse{Code: "empty_question", Message: res.Error, Result: res})
	case errors.Is(err, persona.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, askResponse{Code: "rate_limited", Message: res.Error, Result: res})
	case errors.Is(err, persona.ErrCompletion):
		writeJSON(w, http.StatusBadGateway, askResponse{Code: "completion_error", Message: res.Error, Result: res})
	default:
		h.log.Error(ctx, "ask failed", logger.String("session", sess.ID()), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
