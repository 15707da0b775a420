package api

import "net/http"

// PersonaDependencies lists the selectable economists.
type PersonaDependencies interface {
	Personas() []string
}

// PersonasHandler handles persona list requests.
type PersonasHandler struct {
	deps PersonaDependencies
}

// NewPersonasHandler creates a new personas handler.
func NewPersonasHandler(deps PersonaDependencies) *PersonasHandler {
	return &PersonasHandler{deps: deps}
}

// HandleGetPersonas handles GET /api/personas requests.
func (h *PersonasHandler) HandleGetPersonas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"personas": h.deps.Personas()})
}
