package obslog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// MetricNamespace is the Prometheus namespace for every pipeline metric.
const MetricNamespace = "billingfocus"

// MetricSubsystem is the Prometheus subsystem for coordinator/stage metrics.
const MetricSubsystem = "pipeline"

// DefaultHistogramBuckets are the stage-duration histogram buckets, in
// seconds: 100ms through 5 minutes, matching batch-oriented stage runtimes
// rather than the teacher's request-latency buckets.
//
//nolint:gochecknoglobals // constant table, not mutated after init
var DefaultHistogramBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Metrics holds the Prometheus collectors the coordinator updates as
// runs progress.
type Metrics struct {
	RecordsTotal  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	RunsInFlight  prometheus.Gauge
	Registry      *prometheus.Registry
}

// NewMetrics registers and returns the pipeline's Prometheus collectors
// on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	recordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "records_total",
			Help:      "Total records processed by stage and outcome.",
		},
		[]string{"provider", "stage", "outcome"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "stage_duration_seconds",
			Help:      "Stage execution duration.",
			Buckets:   DefaultHistogramBuckets,
		},
		[]string{"provider", "stage"},
	)
	runsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing.",
		},
	)

	reg.MustRegister(recordsTotal, stageDuration, runsInFlight)

	return &Metrics{
		RecordsTotal:  recordsTotal,
		StageDuration: stageDuration,
		RunsInFlight:  runsInFlight,
		Registry:      reg,
	}
}

// ObserveStage records stage's duration (in seconds) for provider.
func (m *Metrics) ObserveStage(provider, stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(provider, stage).Observe(seconds)
}

// AddRecords increments the records_total counter for provider/stage/outcome.
func (m *Metrics) AddRecords(provider, stage, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(provider, stage, outcome).Add(float64(n))
}
