package slogx_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/console/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "console", Version: "test", Env: "test", Level: "debug", Output: &buf})

	var seenID string
	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = slogx.RequestID(r.Context())
		slogx.FromContext(r.Context()).Debug("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates a request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

		require.NotEmpty(t, seenID)
		require.Equal(t, seenID, rec.Header().Get(slogx.RequestIDHeader))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(lines[1], &entry))
		require.Equal(t, "http_request", entry["msg"])
		require.Equal(t, seenID, entry["req_id"])
		require.Equal(t, "/users", entry["path"])
		require.EqualValues(t, http.StatusTeapot, entry["status"])
		require.Equal(t, "console", entry["service"])
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(slogx.RequestIDHeader, "upstream-id")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "upstream-id", seenID)
		require.Equal(t, "upstream-id", rec.Header().Get(slogx.RequestIDHeader))
	})
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, "DEBUG", slogx.ParseLevel("debug").String())
	require.Equal(t, "WARN", slogx.ParseLevel("Warning").String())
	require.Equal(t, "INFO", slogx.ParseLevel("nonsense").String())
}
