// Package metrics registers the Prometheus instruments for the askdocs
// pipeline: ingestion volume, session turns, generation cascade attempts,
// and retrieval/generation latency. Instruments are registered against a
// per-instance registry (never prometheus.DefaultRegisterer) so unit tests
// stay hermetic; the serve command exposes the registry on GET /metrics.
//
// A nil *Metrics is valid everywhere and records nothing, so components
// that run without the server (ingest, one-shot ask) need no wiring.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcome label values for TurnCompleted.
const (
	// OutcomeAnswered means a generated answer was displayed.
	OutcomeAnswered = "answered"
	// OutcomeFallback means the cascade was exhausted and the raw passage
	// was displayed instead.
	OutcomeFallback = "fallback"
	// OutcomeNotFound means retrieval produced no passage.
	OutcomeNotFound = "not_found"
	// OutcomeError means the turn failed at the transport level.
	OutcomeError = "error"
)

// Metrics holds every Prometheus instrument owned by the pipeline.
type Metrics struct {
	// chunksIngested counts chunks successfully inserted into the vector store.
	chunksIngested prometheus.Counter

	// insertFailures counts chunk inserts that failed and landed in the
	// ingestion report.
	insertFailures prometheus.Counter

	// turnsTotal counts completed question turns, partitioned by outcome.
	turnsTotal *prometheus.CounterVec

	// cascadeAttempts counts individual model attempts inside the generation
	// cascade, partitioned by model id and result.
	cascadeAttempts *prometheus.CounterVec

	// fallbackDisplays counts turns that fell back to showing the raw
	// passage because every candidate model failed.
	fallbackDisplays prometheus.Counter

	// retrievalSeconds records the wall-clock latency of nearest-neighbor
	// retrieval calls.
	retrievalSeconds prometheus.Histogram

	// generationSeconds records the wall-clock latency of successful
	// generation calls, partitioned by model id.
	generationSeconds *prometheus.HistogramVec

	// httpRequestsTotal counts HTTP requests handled by the server,
	// partitioned by method, handler, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// New registers every instrument against reg and returns the populated
// Metrics. promauto.With(reg) registers into the provided registry rather
// than the global default.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		chunksIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks inserted into the vector store.",
		}),

		insertFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "ingest",
			Name:      "failures_total",
			Help:      "Total number of chunk inserts that failed.",
		}),

		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "session",
			Name:      "turns_total",
			Help:      "Total number of completed question turns, partitioned by outcome.",
		}, []string{"outcome"}),

		cascadeAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "generate",
			Name:      "attempts_total",
			Help:      "Total number of model attempts in the generation cascade, partitioned by model and result.",
		}, []string{"model", "result"}),

		fallbackDisplays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "generate",
			Name:      "fallbacks_total",
			Help:      "Total number of turns that displayed the raw passage because every candidate model failed.",
		}),

		retrievalSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "askdocs",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Latency of nearest-neighbor retrieval calls.",
			Buckets:   prometheus.DefBuckets,
		}),

		generationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "askdocs",
			Subsystem: "generate",
			Name:      "duration_seconds",
			Help:      "Latency of successful generation calls, partitioned by model.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"model"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askdocs",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", "handler", "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "askdocs",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "handler"}),
	}
}

// ChunkIngested records one successful chunk insert.
func (m *Metrics) ChunkIngested() {
	if m == nil {
		return
	}
	m.chunksIngested.Inc()
}

// InsertFailed records one failed chunk insert.
func (m *Metrics) InsertFailed() {
	if m == nil {
		return
	}
	m.insertFailures.Inc()
}

// TurnCompleted records one completed question turn with the given outcome.
func (m *Metrics) TurnCompleted(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

// CascadeAttempt records one model attempt inside the generation cascade.
func (m *Metrics) CascadeAttempt(model string, ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.cascadeAttempts.WithLabelValues(model, result).Inc()
}

// FallbackDisplayed records one turn that fell back to the raw passage.
func (m *Metrics) FallbackDisplayed() {
	if m == nil {
		return
	}
	m.fallbackDisplays.Inc()
}

// ObserveRetrieval records the latency of one retrieval call.
func (m *Metrics) ObserveRetrieval(d time.Duration) {
	if m == nil {
		return
	}
	m.retrievalSeconds.Observe(d.Seconds())
}

// ObserveGeneration records the latency of one successful generation call.
func (m *Metrics) ObserveGeneration(model string, d time.Duration) {
	if m == nil {
		return
	}
	m.generationSeconds.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveHTTP records one handled HTTP request.
func (m *Metrics) ObserveHTTP(method, handler string, code int, d time.Duration) {
	if m == nil {
		return
	}
	c := codeLabel(code)
	m.httpRequestsTotal.WithLabelValues(method, handler, c).Inc()
	m.httpDurationSeconds.WithLabelValues(method, handler).Observe(d.Seconds())
}

// codeLabel renders an HTTP status code as a metric label value.
func codeLabel(code int) string {
	switch {
	case code >= 100 && code < 600:
		return []string{"1xx", "2xx", "3xx", "4xx", "5xx"}[code/100-1]
	default:
		return "unknown"
	}
}
