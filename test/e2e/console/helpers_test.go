package console_test

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aussiebroadwan/console/internal/console/app"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/stretchr/testify/require"
)

/*
 * Common helpers for console end-to-end tests. The console runs in process
 * against stub auth and sales services.
 */

const (
	operatorEmail    = "alice@example.com"
	operatorPassword = "secret123"
	issuedToken      = "opaque-token-123"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// startBackends starts stub auth and sales services and returns their base
// URLs as the console expects them.
func startBackends(t *testing.T) (authURL, salesURL string) {
	t.Helper()

	auth := http.NewServeMux()
	auth.HandleFunc("GET /v1/auth/token/{kid}", func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok || email != operatorEmail || password != operatorPassword || r.PathValue("kid") != consolesdk.DefaultTokenKeyID {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"` + issuedToken + `"}`))
	})
	auth.HandleFunc("GET /v1/liveness", func(w http.ResponseWriter, r *http.Request) {})

	sales := http.NewServeMux()
	sales.HandleFunc("GET /v1/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+issuedToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"1","name":"Alice","email":"alice@example.com","roles":["ADMIN"],"enabled":true}]`))
	})
	sales.HandleFunc("GET /v1/liveness", func(w http.ResponseWriter, r *http.Request) {})

	authSrv := httptest.NewServer(auth)
	t.Cleanup(authSrv.Close)
	salesSrv := httptest.NewServer(sales)
	t.Cleanup(salesSrv.Close)

	return authSrv.URL + "/v1/auth", salesSrv.URL + "/v1"
}

// testConfig returns a console configuration backed by a sqlite file in a
// temporary directory.
func testConfig(t *testing.T, authURL, salesURL string) app.Config {
	t.Helper()

	return app.Config{
		AuthBaseURL:         authURL,
		SalesBaseURL:        salesURL,
		TokenKeyID:          consolesdk.DefaultTokenKeyID,
		UpstreamTimeout:     5 * time.Second,
		HealthInterval:      time.Hour,
		SessionStore:        app.StoreSQLite,
		SessionDBFile:       filepath.Join(t.TempDir(), "console.db"),
		SessionRecordName:   "auth-storage",
		MasterKey:           "e2e-master-key",
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "text",
		ShutdownGracePeriod: time.Second,
	}
}

// console is a running console instance seen through one browser.
type console struct {
	t      *testing.T
	app    *app.Application
	srv    *httptest.Server
	client *http.Client
}

// startConsole builds the application and serves it to a browser with no
// cookies. Call stop to simulate a process exit; the session store file is
// left in place.
func startConsole(t *testing.T, cfg app.Config) *console {
	t.Helper()

	return restartConsole(t, cfg, newJar(t))
}

// restartConsole is startConsole for a browser that already holds cookies.
// Cookies don't depend on the port, so a jar carries over to a console
// listening elsewhere on the same host.
func restartConsole(t *testing.T, cfg app.Config, jar http.CookieJar) *console {
	t.Helper()

	application, err := app.New(cfg)
	require.NoError(t, err)

	c := &console{
		t:      t,
		app:    application,
		srv:    httptest.NewServer(application.Handler()),
		client: newClient(jar),
	}
	t.Cleanup(c.stop)
	return c
}

// otherBrowser returns a view of the same console from a browser with no
// cookies.
func (c *console) otherBrowser() *console {
	c.t.Helper()

	return &console{
		t:      c.t,
		app:    c.app,
		srv:    c.srv,
		client: newClient(newJar(c.t)),
	}
}

func newJar(t *testing.T) http.CookieJar {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func newClient(jar http.CookieJar) *http.Client {
	return &http.Client{
		Jar:           jar,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

func (c *console) stop() {
	if c.srv == nil {
		return
	}
	c.srv.Close()
	_ = c.app.Shutdown()
	c.srv = nil
}

func (c *console) get(path string) (*http.Response, string) {
	c.t.Helper()

	resp, err := c.client.Get(c.srv.URL + path)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

// csrfToken scrapes the form token from the login page, or from the
// dashboard when already signed in.
func (c *console) csrfToken() string {
	c.t.Helper()

	resp, body := c.get("/login")
	if resp.StatusCode == http.StatusSeeOther {
		_, body = c.get("/dashboard")
	}

	m := csrfPattern.FindStringSubmatch(body)
	require.Len(c.t, m, 2, "page has no csrf token")
	return m[1]
}

func (c *console) login(email, password string) *http.Response {
	c.t.Helper()

	resp, err := c.client.PostForm(c.srv.URL+"/login", url.Values{
		"csrf_token": {c.csrfToken()},
		"email":      {email},
		"password":   {password},
	})
	require.NoError(c.t, err)
	_ = resp.Body.Close()
	return resp
}
