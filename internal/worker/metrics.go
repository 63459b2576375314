package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts worker activity. A nil *Metrics is valid and counts
// nothing, which keeps tests that don't care about metrics small.
type Metrics struct {
	processed       *prometheus.CounterVec
	archives        prometheus.Counter
	deltaLogErrors  prometheus.Counter
	instancesMoved  *prometheus.CounterVec
}

// NewMetrics registers the worker collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chaincore",
			Name:      "changes_processed_total",
			Help:      "Dequeued change records by type, action, and outcome.",
		}, []string{"change_type", "action", "status"}),
		archives: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaincore",
			Name:      "archive_snapshots_written_total",
			Help:      "Archive snapshots written on timestamp rollover.",
		}),
		deltaLogErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaincore",
			Name:      "deltalog_append_failures_total",
			Help:      "Best-effort delta log appends that failed.",
		}),
		instancesMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chaincore",
			Name:      "instances_reconciled_total",
			Help:      "Instance nodes synthesized or retired by reconciliation.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.processed, m.archives, m.deltaLogErrors, m.instancesMoved)
	return m
}

func (m *Metrics) recordProcessed(changeType, action, status string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(changeType, action, status).Inc()
}

func (m *Metrics) recordArchive() {
	if m == nil {
		return
	}
	m.archives.Inc()
}

func (m *Metrics) recordDeltaLogError() {
	if m == nil {
		return
	}
	m.deltaLogErrors.Inc()
}

func (m *Metrics) recordInstances(created, retired int) {
	if m == nil {
		return
	}
	if created > 0 {
		m.instancesMoved.WithLabelValues("created").Add(float64(created))
	}
	if retired > 0 {
		m.instancesMoved.WithLabelValues("retired").Add(float64(retired))
	}
}
