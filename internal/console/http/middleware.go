package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/aussiebroadwan/console/pkg/httpx"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

// requireSession sends visitors whose browser does not hold the session to
// the login page. JSON routes
// get a 401 instead of a redirect.
func (r *Router) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.session.Owns(req.Context()) {
			next.ServeHTTP(w, req)
			return
		}

		if strings.HasPrefix(req.URL.Path, "/api/") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "sign in to the console first")
			return
		}

		httpx.SeeOther(w, req, "/login")
	})
}

// handleUpstreamError deals with an error from the API client. A 401 has
// already signed the operator out (the client's hook), so the request goes
// to the login page and true is returned. Anything else is logged and queued
// as an error flash with msg.
func (r *Router) handleUpstreamError(w http.ResponseWriter, req *http.Request, err error, msg string) bool {
	log := slogx.FromContext(req.Context())

	if consolesdk.IsUnauthorized(err) {
		log.Info("upstream returned 401, redirecting to login", "error", err)
		httpx.SeeOther(w, req, "/login")
		return true
	}

	log.Error(msg, "error", err)
	r.flashes.Error(browserID(req), msg)
	return false
}
