package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/console/internal/console/metrics"
	"github.com/aussiebroadwan/console/internal/console/session"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/aussiebroadwan/console/pkg/cryptox"
	"github.com/aussiebroadwan/console/pkg/httpx"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

// AuthHandler serves the login page and the sign-in/sign-out actions.
type AuthHandler struct {
	router *Router
}

type loginPage struct {
	Email string
	Error string
}

// HandleLoginPage renders the login form, or skips it when already signed in.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.router.session.Owns(r.Context()) {
		httpx.SeeOther(w, r, "/dashboard")
		return
	}

	h.router.render(w, r, http.StatusOK, pageLogin, "Sign in", loginPage{})
}

// HandleLogin exchanges the submitted credentials for a session.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	if email == "" || password == "" {
		h.router.render(w, r, http.StatusUnprocessableEntity, pageLogin, "Sign in", loginPage{
			Email: email,
			Error: "Email and password are required",
		})
		return
	}

	// The session is bound to a browser id the visitor has never seen
	browser := cryptox.MustGenerateToken(cryptox.TokenSize256)

	err := h.router.session.Login(session.WithBrowser(r.Context(), browser), email, password)
	if err == nil {
		metrics.LoginsTotal.WithLabelValues("success").Inc()
		h.router.rebindBrowser(w, r, browser)
		httpx.SeeOther(w, r, "/dashboard")
		return
	}

	page := loginPage{Email: email}
	status := http.StatusUnauthorized

	var authErr *consolesdk.AuthError
	switch {
	case errors.As(err, &authErr):
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		log.Info("login rejected", "email", email, "status", authErr.StatusCode)
		page.Error = "Invalid email or password"
		if authErr.StatusCode != http.StatusUnauthorized && authErr.StatusCode != http.StatusForbidden {
			page.Error = "Login failed: " + authErr.Message
		}
	default:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		log.Error("login failed", "email", email, "error", err)
		page.Error = "Login failed, the auth service could not be reached"
		status = http.StatusBadGateway
	}

	h.router.render(w, r, status, pageLogin, "Sign in", page)
}

// HandleLogout signs the operator out. It always ends on the login page.
// Only the browser holding the session can end it; any other browser just
// gets a new id.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if h.router.session.Owns(r.Context()) {
		if err := h.router.session.Logout(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Error("failed to persist logout", "error", err)
		}
	}

	h.router.rebindBrowser(w, r, cryptox.MustGenerateToken(cryptox.TokenSize256))

	httpx.SeeOther(w, r, "/login")
}

// renderRateLimited re-renders the login form when too many attempts were
// made for one IP and email.
func (h *AuthHandler) renderRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()

	h.router.render(w, r, http.StatusTooManyRequests, pageLogin, "Sign in", loginPage{
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Error: fmt.Sprintf("Too many login attempts, try again in %d seconds", retryAfter),
	})
}
