// Package metrics exposes Prometheus instrumentation for the API and the
// sync engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codehaven_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codehaven_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	remoteCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codehaven_remote_calls_total",
		Help: "Remote store calls by operation and outcome.",
	}, []string{"op", "outcome"})

	syncTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codehaven_sync_transitions_total",
		Help: "File sync status transitions recorded by the sync engine.",
	}, []string{"status"})
)

// ObserveRemoteCall records one remote store call.
func ObserveRemoteCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	remoteCallsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveSyncTransition records a file entering the given sync status.
func ObserveSyncTransition(status string) {
	syncTransitionsTotal.WithLabelValues(status).Inc()
}

// Middleware instruments HTTP handlers with request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
