package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcoord",
		Name:      "events_created_total",
		Help:      "Total number of events created by cameras",
	}, []string{"camera"})

	ClaimsAcquired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcoord",
		Name:      "claims_acquired_total",
		Help:      "Total number of rows successfully claimed by a worker stage",
	}, []string{"stage"})

	ClaimsStale = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcoord",
		Name:      "claims_stale_total",
		Help:      "Total number of commit attempts rejected because the claim had moved",
	}, []string{"stage"})

	WorkerJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "camcoord",
		Name:      "worker_job_duration_seconds",
		Help:      "Duration of one claimed job, from claim to commit or fail",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})

	WorkerJobFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcoord",
		Name:      "worker_job_failures_total",
		Help:      "Total number of claimed jobs that ended in a failed commit",
	}, []string{"stage"})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "camcoord",
		Name:      "queue_depth",
		Help:      "Number of events claimed by a worker stage's most recent poll",
	}, []string{"stage"})

	AICallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "camcoord",
		Name:      "ai_call_duration_seconds",
		Help:      "Duration of calls to the external AI model host",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	AICallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcoord",
		Name:      "ai_call_errors_total",
		Help:      "Total number of failed or circuit-broken calls to the AI model host",
	}, []string{"reason"})

	AICircuitState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "camcoord",
		Name:      "ai_circuit_state",
		Help:      "Current state of the AI model host circuit breaker (0=closed, 1=half-open, 2=open)",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "camcoord",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	LogLinesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcoord",
		Name:      "log_lines_ingested_total",
		Help:      "Total number of log lines accepted through the ingest endpoint",
	}, []string{"source", "level"})
)
