package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"school-sos-go/internal/domain/classes"
)

type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	reconcileRuns   *prometheus.CounterVec
	inconsistencies *prometheus.GaugeVec
	repaired        prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_sos",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "school_sos",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_sos",
			Name:      "reconcile_runs_total",
			Help:      "Roster reconciliation runs by outcome.",
		}, []string{"outcome"}),
		inconsistencies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "school_sos",
			Name:      "reconcile_inconsistencies",
			Help:      "Inconsistencies found by the last reconciliation run.",
		}, []string{"kind"}),
		repaired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school_sos",
			Name:      "reconcile_repaired_total",
			Help:      "Roster references repaired by reconciliation.",
		}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.reconcileRuns,
		m.inconsistencies,
		m.repaired,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records requests by chi route pattern so ids in paths do not
// blow up label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveReconcile(report *classes.Report, err error) {
	if err != nil {
		m.reconcileRuns.WithLabelValues("error").Inc()
		return
	}
	m.reconcileRuns.WithLabelValues("ok").Inc()

	counts := map[classes.InconsistencyKind]int{
		classes.KindOrphanedTeacher: 0,
		classes.KindMissingBackref:  0,
		classes.KindStaleClassID:    0,
	}
	for _, item := range report.Inconsistencies {
		counts[item.Kind]++
	}
	for kind, count := range counts {
		m.inconsistencies.WithLabelValues(string(kind)).Set(float64(count))
	}
	if report.Repaired {
		m.repaired.Add(float64(len(report.Inconsistencies)))
	}
}
