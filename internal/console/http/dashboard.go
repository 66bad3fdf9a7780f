package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/console/internal/console/domain"
	"github.com/aussiebroadwan/console/internal/console/health"
	"github.com/aussiebroadwan/console/pkg/httpx"
	"github.com/aussiebroadwan/console/pkg/jwtx"
)

// DashboardHandler shows upstream health.
type DashboardHandler struct {
	router *Router
}

type dashboardPage struct {
	Services      []domain.ServiceStatus
	Summary       health.Summary
	SessionExpiry string
}

func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		Services: h.router.monitor.Statuses(),
		Summary:  h.router.monitor.Summary(),
	}

	// Only JWTs say when they expire
	if claims, err := jwtx.Peek(h.router.session.Snapshot().Token); err == nil {
		if exp, ok := claims.ExpiresAtTime(); ok {
			page.SessionExpiry = exp.Local().Format(time.DateTime)
		}
	}

	h.router.render(w, r, http.StatusOK, pageDashboard, "Dashboard", page)
}

// HandleRefresh runs one health check right away. Failures only change the
// displayed status.
func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.router.monitor.CheckNow(r.Context())

	// A check may have hit a 401 and signed the operator out
	if !h.router.session.Owns(r.Context()) {
		httpx.SeeOther(w, r, "/login")
		return
	}

	httpx.SeeOther(w, r, "/dashboard")
}
