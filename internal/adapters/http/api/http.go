// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/econgpt/internal/domain/persona"
	"github.com/okian/econgpt/internal/domain/types"
	"github.com/okian/econgpt/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EconomyDependencies
	PersonaDependencies
	AskDependencies
}

// SessionDependencies resolves the browser session of a request.
type SessionDependencies interface {
	Session(ctx context.Context, id string) (*persona.Session, bool)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	economyHandler   *EconomyHandler
	personasHandler  *PersonasHandler
	sessionHandler   *SessionHandler
	askHandler       *AskHandler
	dashboardHandler *dashboardHandler
	askLimiter       *clientLimiter
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	askRPS       float64
	askBurst     int
	secureCookie bool
	log          logger.Logger
}

// WithAskRateLimit throttles POST /api/ask per client address.
func WithAskRateLimit(rps float64, burst int) ServerOption {
	return func(o *serverOptions) {
		if rps > 0 && burst > 0 {
			o.askRPS = rps
			o.askBurst = burst
		}
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) ServerOption {
	return func(o *serverOptions) { o.secureCookie = secure }
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(log logger.Logger) ServerOption {
	return func(o *serverOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	o := serverOptions{askRPS: 2, askBurst: 5, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		economyHandler:   NewEconomyHandler(deps, o.log),
		personasHandler:  NewPersonasHandler(deps),
		sessionHandler:   NewSessionHandler(deps, o.secureCookie),
		askHandler:       NewAskHandler(deps, o.secureCookie, o.log),
		dashboardHandler: newdashboardHandler(),
		askLimiter:       newClientLimiter(o.askRPS, o.askBurst),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/economy", MetricsMiddleware(s.economyHandler.HandleGetEconomy, "economy"))
	mux.HandleFunc("/api/personas", MetricsMiddleware(s.personasHandler.HandleGetPersonas, "personas"))
	mux.HandleFunc("/api/session", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
	mux.HandleFunc("/api/ask", MetricsMiddleware(ThrottleMiddleware(s.askHandler.HandlePostAsk, "ask", s.askLimiter), "ask"))
}

// economyResponse is the body of GET /api/economy.
type economyResponse struct {
	Indicators []types.Indicator `json:"indicators"`
	Rows       []map[string]any  `json:"rows"`
}

// askRequest mirrors the OpenAPI schema for POST /api/ask.
type askRequest struct {
	Slot     *int   `json:"slot"`
	Persona  string `json:"persona"`
	Question string `json:"question"`
}

// askResponse carries the slot state together with the outcome.
type askResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	persona.Result
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
