package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/console/internal/console/domain"
	"github.com/aussiebroadwan/console/pkg/httpx"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	pageLogin     = "login.html"
	pageDashboard = "dashboard.html"
	pageUsers     = "users.html"
	pageUserForm  = "user_form.html"
	pageSettings  = "settings.html"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format(time.TimeOnly)
	},
	// Dates come from the sales service as RFC 3339 strings
	"fmtDate": func(s string) string {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return s
		}
		return t.Local().Format(time.DateOnly)
	},
	"statusText": func(s domain.HealthState) string {
		switch s {
		case domain.HealthHealthy:
			return "Healthy"
		case domain.HealthUnhealthy:
			return "Unhealthy"
		default:
			return "Unknown"
		}
	},
}

// templates holds one parsed set per page: the shared layout plus the page's
// "content" block.
type templates map[string]*template.Template

func parseTemplates() (templates, error) {
	pages := []string{pageLogin, pageDashboard, pageUsers, pageUserForm, pageSettings}

	out := make(templates, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

// pageData is what every template sees at the top level.
type pageData struct {
	Title     string
	Active    string
	User      *domain.User
	CSRFToken string
	Flashes   []Flash

	// Page holds the page specific view model
	Page any
}

// render writes a full page. Pending flashes are consumed by the render.
func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, page, title string, data any) {
	user, _ := r.session.User(req.Context())
	browser := browserID(req)

	pd := pageData{
		Title:     title,
		Active:    strings.TrimSuffix(page, ".html"),
		User:      user,
		CSRFToken: r.csrf.Token(browser),
		Flashes:   r.flashes.Drain(browser),
		Page:      data,
	}
	if page == pageUserForm {
		pd.Active = "users"
	}

	// Render into a buffer so a template error can still become a clean 500
	var buf bytes.Buffer
	if err := r.templates[page].ExecuteTemplate(&buf, "layout", pd); err != nil {
		slogx.FromContext(req.Context()).Error("failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
