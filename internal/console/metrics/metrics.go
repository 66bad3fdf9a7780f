// Package metrics defines the console's Prometheus metrics. They register
// with the default registry on import and are served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts calls to the auth and sales services.
// Labels:
//   - backend: "auth" or "sales"
//   - method: HTTP method
//   - code: response status, "0" when no response arrived
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of requests made to upstream services.",
	},
	[]string{"backend", "method", "code"},
)

// UpstreamRequestDuration measures upstream round trips.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests made to upstream services.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// ObserveUpstream is a consolesdk.Observer.
func ObserveUpstream(backend consolesdk.Backend, method string, status int, elapsed time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(string(backend), method, strconv.Itoa(status)).Inc()
	UpstreamRequestDuration.WithLabelValues(string(backend)).Observe(elapsed.Seconds())
}

// ── Session and health metrics ────────────────────────────────────────────────

// LoginsTotal counts operator sign-in attempts.
// Label:
//   - result: "success", "rejected" (bad credentials), "rate_limited" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of operator sign-in attempts, by result.",
	},
	[]string{"result"},
)

// SessionAuthenticated is 1 while an operator is signed in.
var SessionAuthenticated = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_authenticated",
		Help:      "Whether an operator is currently signed in (1) or not (0).",
	},
)

// ServiceUp is the last health check result per upstream service.
var ServiceUp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_up",
		Help:      "Result of the last health check, 1 for healthy and 0 for unhealthy.",
	},
	[]string{"service"},
)

// ObserveHealth records one health check result.
func ObserveHealth(service string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	ServiceUp.WithLabelValues(service).Set(v)
}

// ObserveSession records the sign-in state.
func ObserveSession(authenticated bool) {
	if authenticated {
		SessionAuthenticated.Set(1)
		return
	}
	SessionAuthenticated.Set(0)
}
