package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	consolehttp "github.com/aussiebroadwan/console/internal/console/http"
	"github.com/aussiebroadwan/console/internal/console/health"
	"github.com/aussiebroadwan/console/internal/console/session"
	"github.com/aussiebroadwan/console/internal/console/settings"
	"github.com/aussiebroadwan/console/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/aussiebroadwan/console/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// backend is a stub pair of auth and sales services.
type backend struct {
	listCalls   atomic.Int32
	createCalls atomic.Int32

	// salesStatus forces every sales response to this status when set
	salesStatus atomic.Int32
}

type harness struct {
	*browser

	test    *testing.T
	backend *backend
	session *session.Store
	srv     *httptest.Server
}

// browser is one visitor with its own cookies.
type browser struct {
	t      *testing.T
	h      *harness
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	b := &backend{}

	auth := http.NewServeMux()
	auth.HandleFunc("GET /v1/auth/token/{kid}", func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok || email != "alice@example.com" || password != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"unauthenticated","message":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	})
	auth.HandleFunc("GET /v1/liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	sales := http.NewServeMux()
	sales.HandleFunc("GET /v1/users", func(w http.ResponseWriter, r *http.Request) {
		b.listCalls.Add(1)
		_, _ = w.Write([]byte(`[{"id":"1","name":"Alice","email":"alice@example.com","roles":["ADMIN"],"enabled":true,"dateCreated":"2024-01-01T00:00:00Z"},{"id":"2","name":"Bob","email":"bob@example.com","roles":["USER"],"enabled":false,"dateCreated":"2024-02-01T00:00:00Z"}]`))
	})
	sales.HandleFunc("POST /v1/users", func(w http.ResponseWriter, r *http.Request) {
		b.createCalls.Add(1)

		var nu consolesdk.NewUser
		_ = json.NewDecoder(r.Body).Decode(&nu)
		if nu.Email == "taken@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"invalid_argument","message":"[{\"field\":\"email\",\"error\":\"email already exists\"}]"}`))
			return
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(consolesdk.UserAccount{ID: "3", Name: nu.Name, Email: nu.Email, Roles: nu.Roles})
	})
	sales.HandleFunc("GET /v1/liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	salesHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status := b.salesStatus.Load(); status != 0 {
			w.WriteHeader(int(status))
			return
		}
		sales.ServeHTTP(w, r)
	})

	authSrv := httptest.NewServer(auth)
	t.Cleanup(authSrv.Close)
	salesSrv := httptest.NewServer(salesHandler)
	t.Cleanup(salesSrv.Close)

	sealer, err := cryptox.NewSealer([]byte("test-key"), session.SealInfo)
	require.NoError(t, err)

	st := memory.NewStore()
	api := consolesdk.NewClient(authSrv.URL+"/v1/auth", salesSrv.URL+"/v1")
	sess := session.New(api, st.SessionRecords(), sealer, "")
	api.Authorizer = sess
	api.OnUnauthorized = sess.HandleUnauthorized

	logger := slog.New(slog.DiscardHandler)
	monitor := health.NewMonitor(logger, time.Hour,
		health.Check{Name: health.SalesService, Ping: api.CheckLiveness},
		health.Check{Name: health.AuthService, Ping: api.CheckAuthLiveness},
	)

	router, err := consolehttp.NewRouter("test", consolehttp.Deps{
		Store:    st,
		Client:   api,
		Session:  sess,
		Monitor:  monitor,
		Settings: settings.NewStore(),
	}, logger)
	require.NoError(t, err)
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	h := &harness{
		test:    t,
		backend: b,
		session: sess,
		srv:     srv,
	}
	h.browser = h.newBrowser()
	return h
}

// newBrowser returns a visitor that starts with no cookies.
func (h *harness) newBrowser() *browser {
	h.test.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(h.test, err)

	return &browser{
		t: h.test,
		h: h,
		client: &http.Client{
			Jar:           jar,
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()

	resp, err := b.client.Get(b.h.srv.URL + path)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]*)"`)

// csrfToken reads the form token from a page this browser can see.
func (b *browser) csrfToken() string {
	b.t.Helper()

	resp, body := b.get("/login")
	if resp.StatusCode == http.StatusSeeOther {
		_, body = b.get("/dashboard")
	}

	m := csrfInput.FindStringSubmatch(body)
	require.Len(b.t, m, 2, "no csrf token on the page")
	return m[1]
}

// post submits a form, adding the browser's CSRF token unless the form
// carries one.
func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()

	if form == nil {
		form = url.Values{}
	}
	if !form.Has("csrf_token") {
		form.Set("csrf_token", b.csrfToken())
	}

	resp, err := b.client.PostForm(b.h.srv.URL+path, form)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) login() {
	b.t.Helper()

	resp, _ := b.post("/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"secret123"},
	})
	require.Equal(b.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(b.t, "/dashboard", resp.Header.Get("Location"))
	require.True(b.t, b.h.session.IsAuthenticated())
}

func (b *browser) cookie() *http.Cookie {
	b.t.Helper()

	u, err := url.Parse(b.h.srv.URL)
	require.NoError(b.t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == "console_session" {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/", "/dashboard", "/users", "/users/new", "/settings"} {
		resp, _ := h.get(path)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		require.Equal(t, "/login", resp.Header.Get("Location"), path)
	}

	resp, body := h.get("/api/v1/services")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "unauthenticated")
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `name="csrf_token"`)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	h.login()

	// The login page is skipped once signed in
	resp, _ = h.get("/login")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, body = h.get("/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, health.SalesService)
	require.Contains(t, body, health.AuthService)
	require.Contains(t, body, "alice (ADMIN)")

	resp, _ = h.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
	require.False(t, h.session.IsAuthenticated())
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post("/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"wrong"},
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "Invalid email or password")
	require.Contains(t, body, `value="alice@example.com"`)
	require.False(t, h.session.IsAuthenticated())
}

func TestCSRF(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.post("/login", url.Values{
		"csrf_token": {"forged"},
		"email":      {"alice@example.com"},
		"password":   {"secret123"},
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.False(t, h.session.IsAuthenticated())

	// Signing in moves the browser to a new id, and with it a new token
	before := h.csrfToken()
	beforeID := h.cookie().Value
	h.login()
	require.NotEqual(t, beforeID, h.cookie().Value)
	require.NotEqual(t, before, h.csrfToken())

	resp, _ = h.post("/settings/reset", url.Values{"csrf_token": {before}})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Tokens are per browser
	other := h.newBrowser()
	require.NotEqual(t, other.csrfToken(), h.csrfToken())
}

func TestBrowserCookie(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "console_session" {
			issued = c
		}
	}
	require.NotNil(t, issued)
	require.Len(t, issued.Value, 43)
	require.True(t, issued.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, issued.SameSite)
	require.Equal(t, "/", issued.Path)

	// A known id is not reissued
	resp, _ = h.get("/login")
	require.Empty(t, resp.Cookies())

	// Signing out moves the browser to a new id as well
	h.login()
	signedIn := h.cookie().Value
	resp, _ = h.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NotEqual(t, signedIn, h.cookie().Value)
}

func TestSessionBoundToBrowser(t *testing.T) {
	h := newHarness(t)
	h.login()

	// A client that sends no cookies at all
	bare := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := bare.Get(h.srv.URL + "/users")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	// Another browser gets its own id, which does not hold the session
	stranger := h.newBrowser()

	resp, body := stranger.get("/login")
	require.Equal(t, http.StatusOK, resp.StatusCode, "stranger sees the login form")
	require.NotContains(t, body, "alice (ADMIN)")

	for _, path := range []string{"/", "/dashboard", "/users", "/users/new", "/users/2/edit", "/settings"} {
		resp, _ := stranger.get(path)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		require.Equal(t, "/login", resp.Header.Get("Location"), path)
	}

	newUser := url.Values{
		"name":            {"Mallory"},
		"email":           {"mallory@example.com"},
		"role":            {"ADMIN"},
		"password":        {"secret123"},
		"passwordConfirm": {"secret123"},
	}
	resp, _ = stranger.post("/users", newUser)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	// The operator's form token is no use from another browser either
	newUser.Set("csrf_token", h.csrfToken())
	resp, _ = stranger.post("/users", newUser)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
	require.Zero(t, h.backend.createCalls.Load())
	require.Zero(t, h.backend.listCalls.Load())

	resp, _ = stranger.get("/api/v1/services")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, body = stranger.get("/api/v1/session")
	var out consolehttp.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.False(t, out.IsAuthenticated)
	require.Nil(t, out.User)

	// Nor can it end the operator's session
	resp, _ = stranger.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.True(t, h.session.IsAuthenticated())

	resp, _ = h.get("/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Signing in from the other browser takes the session over
	stranger.login()
	resp, _ = stranger.get("/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.get("/users")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestUsers(t *testing.T) {
	t.Run("list filters by query", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		resp, body := h.get("/users?q=BOB")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "bob@example.com")
		require.NotContains(t, body, "alice@example.com</small>")
		require.Contains(t, body, "Inactive")
	})

	t.Run("query is used as typed", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		resp, body := h.get("/users?q=" + url.QueryEscape(" alice"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotContains(t, body, "alice@example.com</small>")
		require.Contains(t, body, "No users found")
		require.Contains(t, body, `value=" alice"`)
	})

	t.Run("invalid form makes no upstream call", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		resp, body := h.post("/users", url.Values{
			"name":            {"Carol"},
			"email":           {"carol@example.com"},
			"role":            {"USER"},
			"password":        {"secret123"},
			"passwordConfirm": {"secret124"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Contains(t, body, "Passwords do not match")
		require.Contains(t, body, `value="carol@example.com"`)
		require.Zero(t, h.backend.createCalls.Load())
	})

	t.Run("create redirects and flashes once", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		resp, _ := h.post("/users", url.Values{
			"name":            {"Carol"},
			"email":           {"carol@example.com"},
			"role":            {"USER"},
			"password":        {"secret123"},
			"passwordConfirm": {"secret123"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/users", resp.Header.Get("Location"))
		require.EqualValues(t, 1, h.backend.createCalls.Load())

		_, body := h.get("/users")
		require.Contains(t, body, "User created successfully")
		require.EqualValues(t, 1, h.backend.listCalls.Load())

		_, body = h.get("/users")
		require.NotContains(t, body, "User created successfully")
	})

	t.Run("field errors from the sales service are shown inline", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		resp, body := h.post("/users", url.Values{
			"name":            {"Taken"},
			"email":           {"taken@example.com"},
			"role":            {"USER"},
			"password":        {"secret123"},
			"passwordConfirm": {"secret123"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		require.Contains(t, body, "email already exists")
	})

	t.Run("edit prefills the form", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		resp, body := h.get("/users/2/edit")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Edit User")
		require.Contains(t, body, `value="Bob"`)

		resp, _ = h.get("/users/99/edit")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})

	t.Run("upstream 401 signs out", func(t *testing.T) {
		h := newHarness(t)
		h.login()
		h.backend.salesStatus.Store(http.StatusUnauthorized)

		resp, _ := h.get("/users")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/login", resp.Header.Get("Location"))
		require.False(t, h.session.IsAuthenticated())
	})

	t.Run("upstream failure flashes an error", func(t *testing.T) {
		h := newHarness(t)
		h.login()
		h.backend.salesStatus.Store(http.StatusInternalServerError)

		resp, body := h.get("/users")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Failed to fetch users")
		require.Contains(t, body, "No users found")
		require.True(t, h.session.IsAuthenticated())
	})
}

func TestDashboardRefresh(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, _ := h.post("/dashboard/refresh", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, body := h.get("/api/v1/services")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var services consolehttp.ServicesResponse
	require.NoError(t, json.Unmarshal([]byte(body), &services))
	require.Len(t, services.Services, 2)
	require.Equal(t, health.Summary{Total: 2, Healthy: 2}, services.Summary)
}

func TestSettings(t *testing.T) {
	h := newHarness(t)
	h.login()

	form := url.Values{
		"database.host":                 {"db.internal"},
		"database.port":                 {"5433"},
		"notifications.webhookUrl":      {"https://hooks.example.com/x"},
		"auth.requireEmailVerification": {"on"},
	}
	resp, _ := h.post("/settings", form)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := h.get("/settings")
	require.Contains(t, body, settings.SavedMessage)
	require.Contains(t, body, `value="db.internal"`)

	resp, _ = h.post("/settings/reset", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = h.get("/settings")
	require.Contains(t, body, settings.ResetMessage)
	require.Contains(t, body, `value="localhost"`)
}

func TestSessionAPI(t *testing.T) {
	h := newHarness(t)

	_, body := h.get("/api/v1/session")
	var out consolehttp.SessionResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.False(t, out.IsAuthenticated)
	require.Nil(t, out.User)

	h.login()

	_, body = h.get("/api/v1/session")
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.True(t, out.IsAuthenticated)
	require.Equal(t, "alice@example.com", out.User.Email)
	require.NotContains(t, body, "abc")
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/livez")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"version":"test"`)

	resp, body = h.get("/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"sessionStore":"ok"`)

	resp, _ = h.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
