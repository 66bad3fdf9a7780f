package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/console/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func loginRequest(remoteAddr, email string) *http.Request {
	form := url.Values{}
	form.Set("email", email)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = remoteAddr
	return req
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"extracts from RemoteAddr", nil, "192.168.1.1"},
		{"prefers X-Forwarded-For", map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1"}, "203.0.113.1"},
		{"uses X-Real-IP if X-Forwarded-For absent", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestFormFieldKeyExtractor(t *testing.T) {
	t.Run("normalises POST form values", func(t *testing.T) {
		req := loginRequest("192.168.1.1:12345", "  Alice@Example.com ")

		require.Equal(t, "alice@example.com", httpx.FormFieldKeyExtractor("email")(req))

		// The handler still sees the form
		require.Equal(t, "  Alice@Example.com ", req.FormValue("email"))
	})

	t.Run("returns empty for missing field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		require.Equal(t, "", httpx.FormFieldKeyExtractor("email")(req))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	extractor := httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.FormFieldKeyExtractor("email"),
	)

	require.Equal(t, "192.168.1.1:alice@example.com", extractor(loginRequest("192.168.1.1:12345", "alice@example.com")))
	require.Equal(t, "192.168.1.1", extractor(loginRequest("192.168.1.1:12345", "")), "skips empty values")
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks requests over limit", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		limited := httpx.RateLimitByIP(config)(okHandler)

		for i := range 3 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rec := httptest.NewRecorder()

			limited.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		limited := httpx.RateLimitByIP(config)(okHandler)

		for _, addr := range []string{"192.168.1.1:1", "192.168.1.2:1"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()

			limited.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, addr)
		}
	})

	t.Run("allows request when key extractor returns empty", func(t *testing.T) {
		config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		limited := httpx.RateLimitMiddleware(config, func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRateLimitByIPAndFormField(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}

	var gotRetryAfter int
	onLimit := func(w http.ResponseWriter, r *http.Request, retryAfter int) {
		gotRetryAfter = retryAfter
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}

	limited := httpx.RateLimitByIPAndFormField(config, "email", onLimit)(okHandler)

	serve := func(email string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, loginRequest("192.168.1.1:12345", email))
		return rec
	}

	require.Equal(t, http.StatusOK, serve("alice@example.com").Code)
	require.Equal(t, http.StatusOK, serve("ALICE@example.com").Code)

	rec := serve("alice@example.com")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "slow down", rec.Body.String())
	require.GreaterOrEqual(t, gotRetryAfter, 1)
	require.Equal(t, strconv.Itoa(gotRetryAfter), rec.Header().Get("Retry-After"))

	// Another email from the same IP has its own bucket
	require.Equal(t, http.StatusOK, serve("bob@example.com").Code)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	defaultConfig := httpx.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		Burst:             10,
	}

	t.Run("NoEnvVarsUsesDefaults", func(t *testing.T) {
		require.Equal(t, defaultConfig, httpx.ParseRateLimitFromEnv("TEST", defaultConfig))
	})

	t.Run("OverrideAllParameters", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "200")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TEST_BURST", "250")

		config := httpx.ParseRateLimitFromEnv("TEST", defaultConfig)
		require.Equal(t, 200, config.RequestsPerWindow)
		require.Equal(t, 30*time.Second, config.Window)
		require.Equal(t, 250, config.Burst)
	})

	t.Run("InvalidValuesUseDefaults", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "invalid")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "-10")
		t.Setenv("RATELIMIT_TEST_BURST", "0")

		require.Equal(t, defaultConfig, httpx.ParseRateLimitFromEnv("TEST", defaultConfig))
	})
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mw("outer"), mw("inner"), httpx.SecurityHeaders)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
