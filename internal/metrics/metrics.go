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
	// Delivery attempts partitioned by pass (run, retry), status and method.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dunning_deliveries_total",
			Help: "Reminder delivery attempts recorded in the audit trail",
		},
		[]string{"pass", "status", "method"},
	)

	// Invoices a pass looked at and did not dispatch.
	Skipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dunning_skipped_total",
			Help: "Invoices skipped by a pass, by reason",
		},
		[]string{"pass", "reason"},
	)

	Unreachable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dunning_unreachable_total",
			Help: "Due invoices with no phone number on record",
		},
	)

	AttachmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dunning_attachment_failures_total",
			Help: "Reminders sent without a usable invoice link",
		},
	)

	PersistenceErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dunning_persistence_errors_total",
			Help: "Failed writes to the membership log or audit trail",
		},
	)

	FinalFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dunning_final_failures_total",
			Help: "Keys given up on after reaching the retry limit",
		},
	)

	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dunning_pass_duration_seconds",
			Help:    "Wall time of a run or retry pass",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"pass", "outcome"},
	)

	LastPass = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dunning_last_pass_timestamp_seconds",
			Help: "Unix time the last pass of each kind finished",
		},
		[]string{"pass", "outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObservePass records how long a pass took and when it ended.
func ObservePass(pass string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	PassDuration.WithLabelValues(pass, outcome).Observe(time.Since(start).Seconds())
	LastPass.WithLabelValues(pass, outcome).SetToCurrentTime()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latencies, labelled by the matched
// route pattern to keep cardinality low.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}

		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}
