package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/console/internal/console/health"
	"github.com/aussiebroadwan/console/internal/console/session"
	"github.com/aussiebroadwan/console/internal/console/settings"
	"github.com/aussiebroadwan/console/internal/console/store"
	"github.com/aussiebroadwan/console/internal/console/users"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/aussiebroadwan/console/pkg/httpx"
	"github.com/aussiebroadwan/console/pkg/slogx"

	_ "github.com/aussiebroadwan/console/api/console" // Swagger docs
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	client    *consolesdk.Client
	session   *session.Store
	monitor   *health.Monitor
	settings  *settings.Store
	validator *users.Validator

	templates templates
	flashes   *Flashes
	csrf      *csrf
}

// Deps are the services the console pages are built on.
type Deps struct {
	Store    store.Store
	Client   *consolesdk.Client
	Session  *session.Store
	Monitor  *health.Monitor
	Settings *settings.Store
}

func NewRouter(buildVersion string, deps Deps, logger *slog.Logger) (*Router, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        deps.Store,
		client:       deps.Client,
		session:      deps.Session,
		monitor:      deps.Monitor,
		settings:     deps.Settings,
		validator:    users.NewValidator(),
		templates:    tmpl,
		flashes:      &Flashes{},
		csrf:         newCSRF(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.browser,
		httpx.SecurityHeaders,
	}

	return r, nil
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerDashboard()
	r.registerUsers()
	r.registerSettings()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Operator Console API
//	@version		0.1.0
//	@description	JSON endpoints of the operator console. The HTML pages are not described here.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/console
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8081
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{router: r}

	r.Mux.HandleFunc("GET /login", h.HandleLoginPage)

	// POST /login - strict rate limit by IP + email (brute force prevention)
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.csrf.Protect,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "email", h.renderRateLimited),
		),
	)

	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.csrf.Protect,
		),
	)
}

func (r *Router) registerDashboard() {
	h := &DashboardHandler{router: r}

	r.Mux.Handle("GET /{$}",
		httpx.Chain(http.RedirectHandler("/dashboard", http.StatusSeeOther),
			r.requireSession,
		),
	)
	r.Mux.Handle("GET /dashboard",
		httpx.Chain(http.HandlerFunc(h.HandleDashboard),
			r.requireSession,
		),
	)
	r.Mux.Handle("POST /dashboard/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			r.requireSession,
			r.csrf.Protect,
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{router: r}

	r.Mux.Handle("GET /users",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.requireSession,
		),
	)
	r.Mux.Handle("GET /users/new",
		httpx.Chain(http.HandlerFunc(h.HandleNew),
			r.requireSession,
		),
	)
	r.Mux.Handle("GET /users/{id}/edit",
		httpx.Chain(http.HandlerFunc(h.HandleEdit),
			r.requireSession,
		),
	)

	// Mutations - moderate rate limit by IP
	mutate := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.requireSession,
			r.csrf.Protect,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /users", mutate(h.HandleCreate))
	r.Mux.Handle("POST /users/{id}", mutate(h.HandleUpdate))
	r.Mux.Handle("POST /users/{id}/delete", mutate(h.HandleDelete))
}

func (r *Router) registerSettings() {
	h := &SettingsHandler{router: r}

	r.Mux.Handle("GET /settings",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.requireSession,
		),
	)
	r.Mux.Handle("POST /settings",
		httpx.Chain(http.HandlerFunc(h.HandleSave),
			r.requireSession,
			r.csrf.Protect,
		),
	)
	r.Mux.Handle("POST /settings/reset",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			r.requireSession,
			r.csrf.Protect,
		),
	)
}

func (r *Router) registerAPI() {
	h := &APIHandler{router: r}

	r.Mux.HandleFunc("GET /api/v1/session", h.HandleSession)
	r.Mux.Handle("GET /api/v1/services",
		httpx.Chain(http.HandlerFunc(h.HandleServices),
			r.requireSession,
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
