// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ContentEdits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratasite_content_edits_total",
			Help: "Page and section edits by action and result",
		},
		[]string{"action", "result"},
	)

	QuoteSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratasite_quote_submissions_total",
			Help: "Quote submissions by kind and result",
		},
		[]string{"kind", "result"},
	)

	QuoteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratasite_quote_transitions_total",
			Help: "Quote status changes by target status and result",
		},
		[]string{"to", "result"},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratasite_logins_total",
			Help: "Sign-in attempts by result (ok, invalid, disabled, locked)",
		},
		[]string{"result"},
	)

	PageCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratasite_page_cache_requests_total",
			Help: "Page cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	SectionsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratasite_render_sections_skipped_total",
			Help: "Sections left out of a rendered page, by section type",
		},
		[]string{"type"},
	)

	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stratasite_task_runs_total",
			Help: "Background task executions by job and result",
		},
		[]string{"job", "result"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stratasite_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Result labels an outcome as "ok" or "error".
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the Prometheus exposition.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency labelled by the matched chi route
// pattern, so path parameters do not explode the label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
