// Package metrics exposes the service's Prometheus instruments. A nil
// *Metrics is valid and records nothing, so callers never need to guard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/triage/pkg/middleware"
)

const namespace = "triage"

// Metrics owns a private registry and the counters recorded along the answer path.
type Metrics struct {
	registry *prometheus.Registry

	classifications *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	tickets         *prometheus.CounterVec
	requests        *prometheus.HistogramVec
}

// New registers all instruments plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Queries classified, by sensitivity label and deciding stage.",
		}, []string{"label", "stage"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers produced, by visibility and outcome.",
		}, []string{"visibility", "outcome"}),
		tickets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_tickets_total",
			Help:      "Review ticket writes, by sink and result.",
		}, []string{"sink", "result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and status code.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.classifications,
		m.outcomes,
		m.tickets,
		m.requests,
	)
	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Classified(label, stage string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(label, stage).Inc()
}

func (m *Metrics) Answered(visibility, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(visibility, outcome).Inc()
}

// TicketWritten records one sink write; ok=false counts a swallowed failure.
func (m *Metrics) TicketWritten(sink string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.tickets.WithLabelValues(sink, result).Inc()
}

// Middleware observes request latency for every request passing through.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := middleware.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)
			m.requests.
				WithLabelValues(r.Method, strconv.Itoa(rec.Status)).
				Observe(time.Since(start).Seconds())
		})
	}
}
