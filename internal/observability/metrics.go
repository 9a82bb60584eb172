// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Intake metrics
	AssetsObserved *prometheus.CounterVec
	DedupHits      prometheus.Counter
	IntakeDropped  prometheus.Counter

	// Scheduler metrics
	Submissions  prometheus.Counter
	Acquisitions prometheus.Counter
	Rejections   *prometheus.CounterVec
	ActiveTasks  prometheus.Gauge
	QueueDepth   prometheus.Gauge

	// Position metrics
	PositionsOpen  prometheus.Gauge
	SweepsTotal    prometheus.Counter
	ExitsTotal     *prometheus.CounterVec
	RealizedPnLSOL prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_sniper"
	}

	return &Metrics{
		AssetsObserved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "assets_observed_total",
			Help:      "Total number of assets observed by feed source",
		}, []string{"source"}),
		DedupHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "dedup_hits_total",
			Help:      "Total number of repeat sightings suppressed by dedup",
		}),
		IntakeDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "dropped_total",
			Help:      "Total number of events dropped at intake (rate limit, shutdown)",
		}),

		Submissions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "submissions_total",
			Help:      "Total number of assets submitted to the scheduler",
		}),
		Acquisitions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "acquisitions_total",
			Help:      "Total number of successful acquisitions",
		}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "rejections_total",
			Help:      "Total number of failed acquisition attempts by reason",
		}, []string{"reason"}),
		ActiveTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "active_tasks",
			Help:      "Number of acquisition tasks currently executing",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Number of assets waiting in the overflow queue",
		}),

		PositionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "positions_open",
			Help:      "Number of currently open positions",
		}),
		SweepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "sweeps_total",
			Help:      "Total number of exit evaluation sweeps",
		}),
		ExitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "exits_total",
			Help:      "Total number of position exits by reason",
		}, []string{"reason"}),
		RealizedPnLSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "realized_pnl_sol",
			Help:      "Cumulative realized profit and loss in SOL",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAssetObserved increments the observed counter for a feed source.
func RecordAssetObserved(source string) {
	DefaultMetrics.AssetsObserved.WithLabelValues(source).Inc()
}

// RecordDedupHit increments the dedup suppression counter.
func RecordDedupHit() {
	DefaultMetrics.DedupHits.Inc()
}

// RecordIntakeDropped increments the intake drop counter.
func RecordIntakeDropped() {
	DefaultMetrics.IntakeDropped.Inc()
}

// RecordSubmission increments the scheduler submission counter.
func RecordSubmission() {
	DefaultMetrics.Submissions.Inc()
}

// RecordOutcome counts one finished acquisition attempt.
func RecordOutcome(success bool, reason string) {
	if success {
		DefaultMetrics.Acquisitions.Inc()
		return
	}
	DefaultMetrics.Rejections.WithLabelValues(reason).Inc()
}

// RecordSweep increments the sweep counter.
func RecordSweep() {
	DefaultMetrics.SweepsTotal.Inc()
}

// RecordExit counts one position exit by reason.
func RecordExit(reason string) {
	DefaultMetrics.ExitsTotal.WithLabelValues(reason).Inc()
}
