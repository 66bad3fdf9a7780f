package http

import (
	"net/http"

	"github.com/aussiebroadwan/console/internal/console/domain"
	"github.com/aussiebroadwan/console/internal/console/health"
	"github.com/aussiebroadwan/console/pkg/httpx"
)

// APIHandler serves the console's JSON endpoints.
type APIHandler struct {
	router *Router
}

// SessionResponse describes the operator session. The token is never
// included.
type SessionResponse struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	User            *domain.User `json:"user,omitempty"`
}

// ServicesResponse is the monitor's latest view of the upstream services.
type ServicesResponse struct {
	Services []domain.ServiceStatus `json:"services"`
	Summary  health.Summary         `json:"summary"`
}

// HandleSession godoc
//
//	@Summary		Current session
//	@Description	Reports whether an operator is signed in and who it is
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/api/v1/session [get].
func (h *APIHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	user, ok := h.router.session.User(r.Context())

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, SessionResponse{
		IsAuthenticated: ok,
		User:            user,
	})
}

// HandleServices godoc
//
//	@Summary		Upstream service health
//	@Description	Returns the last result of every health check and the dashboard counters
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	ServicesResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"not signed in"
//	@Router			/api/v1/services [get].
func (h *APIHandler) HandleServices(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, ServicesResponse{
		Services: h.router.monitor.Statuses(),
		Summary:  h.router.monitor.Summary(),
	})
}
