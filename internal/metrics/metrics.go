// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the footprint engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/footprint/internal/model"
)

type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	computations    *prometheus.CounterVec
	computeDuration prometheus.Histogram
	emissions       *prometheus.GaugeVec
	published       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "footprint_http_requests_total",
			Help: "HTTP requests processed, by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "footprint_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "footprint_computations_total",
			Help: "Footprint computations, by result.",
		}, []string{"result"}),
		computeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "footprint_computation_duration_seconds",
			Help:    "Time spent computing one footprint snapshot.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		emissions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "footprint_snapshot_emissions_kg",
			Help: "Emissions of the most recently computed snapshot, by category.",
		}, []string{"category"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "footprint_events_published_total",
			Help: "Snapshot events delivered to the message broker, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.computations,
		m.computeDuration,
		m.emissions,
		m.published,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Middleware records request counts and latency labelled by the matched
// route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		if m == nil {
			return
		}
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCompute records the outcome of one footprint computation.
func (m *Metrics) ObserveCompute(_ int64, fp *model.CarbonFootprint, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.computations.WithLabelValues("error").Inc()
		return
	}
	m.computations.WithLabelValues("ok").Inc()
	m.computeDuration.Observe(elapsed.Seconds())
	m.emissions.WithLabelValues(model.CategoryEnergy).Set(fp.EnergyEmissions)
	m.emissions.WithLabelValues(model.CategoryTransportation).Set(fp.TransportationEmissions)
	m.emissions.WithLabelValues(model.CategoryDiet).Set(fp.DietEmissions)
	m.emissions.WithLabelValues("total").Set(fp.TotalEmissions)
}

// EventPublished counts a broker delivery attempt.
func (m *Metrics) EventPublished(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "fail"
	}
	m.published.WithLabelValues(result).Inc()
}
