package http

import (
	"net/http"

	"github.com/aussiebroadwan/console/internal/console/settings"
	"github.com/aussiebroadwan/console/pkg/httpx"
)

// SettingsHandler serves the environment settings page.
type SettingsHandler struct {
	router *Router
}

func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.router.render(w, r, http.StatusOK, pageSettings, "Settings", h.router.settings.Get())
}

func (h *SettingsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
		return
	}

	h.router.flashes.Success(browserID(r), h.router.settings.Save(settings.FromForm(r.PostForm)))
	httpx.SeeOther(w, r, "/settings")
}

func (h *SettingsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.router.flashes.Success(browserID(r), h.router.settings.Reset())
	httpx.SeeOther(w, r, "/settings")
}
