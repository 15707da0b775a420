package api

import (
	"context"
	"net/http"

	"github.com/okian/econgpt/internal/domain/types"
	"github.com/okian/econgpt/pkg/logger"
)

// msgWarehouseUnavailable is returned instead of the warehouse error, which
// can carry connection details.
const msgWarehouseUnavailable = "economic data is temporarily unavailable"

// EconomyDependencies defines the interface for economic table reads.
type EconomyDependencies interface {
	EconomicTable(ctx context.Context) (types.Table, error)
}

// EconomyHandler handles economic table requests.
type EconomyHandler struct {
	deps EconomyDependencies
	log  logger.Logger
}

// NewEconomyHandler creates a new economy handler.
func NewEconomyHandler(deps EconomyDependencies, log logger.Logger) *EconomyHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &EconomyHandler{deps: deps, log: log}
}

// HandleGetEconomy handles GET /api/economy?indicators=INFLATION,GROWTH.
// Without indicators every column is returned.
func (h *EconomyHandler) HandleGetEconomy(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_economy"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	indicators, err := types.ParseIndicators(r.URL.Query().Get("indicators"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	table, err := h.deps.EconomicTable(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "economic table unavailable", logger.Error(WrapKind(op, ErrUpstream, err)))
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: "warehouse_error", Message: msgWarehouseUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, economyResponse{
		Indicators: indicators,
		Rows:       table.Project(indicators),
	})
}
