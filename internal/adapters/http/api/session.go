package api

import (
	"net/http"

	"github.com/okian/econgpt/internal/domain/persona"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "econgpt_session"

// sessionCookies resolves and issues session cookies.
type sessionCookies struct {
	deps   SessionDependencies
	secure bool
}

// resolve returns the session of r, issuing a cookie when a new one was
// created.
func (c sessionCookies) resolve(w http.ResponseWriter, r *http.Request) *persona.Session {
	var id string
	if ck, err := r.Cookie(SessionCookie); err == nil {
		id = ck.Value
	}
	sess, created := c.deps.Session(r.Context(), id)
	if created || sess.ID() != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// SessionHandler handles session state requests.
type SessionHandler struct {
	cookies sessionCookies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies, secureCookie bool) *SessionHandler {
	return &SessionHandler{cookies: sessionCookies{deps: deps, secure: secureCookie}}
}

// HandleGetSession handles GET /api/session requests.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sess := h.cookies.resolve(w, r)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}
