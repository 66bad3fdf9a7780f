package http

import (
	"net/http"

	"github.com/aussiebroadwan/console/pkg/cryptox"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

const csrfField = "csrf_token"

// csrf derives the form token from the browser id. A new browser id (issued
// on every sign in and sign out) therefore invalidates every form rendered
// before it.
type csrf struct {
	key []byte
}

func newCSRF() *csrf {
	return &csrf{key: []byte(cryptox.MustGenerateToken(cryptox.TokenSize256))}
}

// Token returns the form token for a browser id.
func (c *csrf) Token(browser string) string {
	if browser == "" {
		return ""
	}
	return cryptox.MACToken(c.key, "csrf:"+browser)
}

// Protect rejects unsafe requests whose form token doesn't match the
// browser they came from.
func (c *csrf) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if !cryptox.EqualTokens(r.PostFormValue(csrfField), c.Token(browserID(r))) {
			slogx.FromContext(r.Context()).Warn("csrf token mismatch")
			http.Error(w, "invalid or expired form, reload the page and try again", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
