package http

import (
	"net/http"

	"github.com/aussiebroadwan/console/internal/console/session"
	"github.com/aussiebroadwan/console/pkg/cryptox"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

// browserCookie carries the opaque id that ties a browser to the operator
// session. The id never leaves the console and is only stored hashed.
const browserCookie = "console_session"

// Length of a TokenSize256 id once encoded.
const browserIDLen = 43

// browser tags every request with its browser id, issuing a fresh one when
// the request carries none.
func (r *Router) browser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := ""
		if c, err := req.Cookie(browserCookie); err == nil && len(c.Value) == browserIDLen {
			id = c.Value
		}
		if id == "" {
			id = r.issueBrowser(w, req)
		}

		next.ServeHTTP(w, req.WithContext(session.WithBrowser(req.Context(), id)))
	})
}

// issueBrowser sets a new browser id cookie and returns the id.
func (r *Router) issueBrowser(w http.ResponseWriter, req *http.Request) string {
	id := cryptox.MustGenerateToken(cryptox.TokenSize256)
	setBrowserCookie(w, req, id)

	slogx.FromContext(req.Context()).Debug("issued browser session cookie")
	return id
}

// rebindBrowser moves the browser onto id. Signing in and out both do this
// so an id seen before the change is worthless after it.
func (r *Router) rebindBrowser(w http.ResponseWriter, req *http.Request, id string) {
	r.flashes.Forget(browserID(req))
	setBrowserCookie(w, req, id)
}

func setBrowserCookie(w http.ResponseWriter, req *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// browserID returns the id the request was tagged with.
func browserID(req *http.Request) string {
	return session.BrowserFrom(req.Context())
}
