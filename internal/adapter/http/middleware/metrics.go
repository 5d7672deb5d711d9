package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/valuations/internal/infrastructure/metrics"
)

// unmatchedRoute labels requests no route matched, so probes of random
// paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records HTTP metrics labelled by route pattern.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Wrap wraps an http.Handler with request metrics.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.metrics.HTTPRequestsInFlight.Inc()
		defer m.metrics.HTTPRequestsInFlight.Dec()

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routeLabel(r)

		m.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel prefers the chi pattern filled in during routing. Outside a
// chi router the path is normalized instead.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return normalizePath(r.URL.Path)
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return strings.TrimSuffix(pattern, "/*")
	}
	return unmatchedRoute
}

// idSegments are the path segments followed by an identifier.
var idSegments = map[string]bool{
	"families":   true,
	"accounts":   true,
	"valuations": true,
	"entries":    true,
}

// normalizePath replaces identifiers with {id}.
// /api/v1/families/F1/valuations/V1/confirm -> /api/v1/families/{id}/valuations/{id}/confirm
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if idSegments[parts[i-1]] && parts[i] != "" && parts[i] != "confirm" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
