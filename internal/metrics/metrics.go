// Package metrics provides Prometheus metrics for the editor service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JonMunkholm/cdm/internal/core"
)

const namespace = "cdm"

// Collector holds all Prometheus metrics and implements core.Recorder.
type Collector struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	Mutations  *prometheus.CounterVec
	UploadRows *prometheus.CounterVec

	factory promauto.Factory
}

var _ core.Recorder = (*Collector)(nil)

// New creates a collector registered with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		Mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Entities changed, by kind and audit action",
			},
			[]string{"kind", "action"},
		),
		UploadRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_rows_total",
				Help:      "CSV upload rows processed, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		factory: factory,
	}
}

// RecordMutation counts n entities changed by action.
func (c *Collector) RecordMutation(kind core.Kind, action core.AuditAction, n int) {
	c.Mutations.WithLabelValues(string(kind), string(action)).Add(float64(n))
}

// RecordUploadRows counts n upload rows with the given outcome.
func (c *Collector) RecordUploadRows(kind core.Kind, outcome string, n int) {
	if n <= 0 {
		return
	}
	c.UploadRows.WithLabelValues(string(kind), outcome).Add(float64(n))
}

// WatchUploads exports the limiter's occupancy as gauges read at scrape time.
func (c *Collector) WatchUploads(l *core.UploadLimiter) {
	c.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uploads_active",
			Help:      "Uploads currently holding a limiter slot",
		},
		func() float64 { return float64(l.ActiveCount()) },
	)
	c.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uploads_max_concurrent",
			Help:      "Configured upload concurrency",
		},
		func() float64 { return float64(l.Status().MaxConcurrent) },
	)
}

// Middleware records request count, duration and in-flight gauge. The route
// label is the chi pattern so ids do not create new series.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.RequestsInFlight.Inc()
		defer c.RequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		code := strconv.Itoa(status)
		c.RequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
