package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Audit records counters for the audit workflow. A nil *Audit, or one built
// from a nil registerer, is a no-op.
type Audit struct {
	transitions  *prometheus.CounterVec
	entries      *prometheus.CounterVec
	bulkDuration prometheus.Histogram
	corrections  *prometheus.CounterVec
	activityDrop prometheus.Counter
}

func NewAudit(reg prometheus.Registerer) *Audit {
	if reg == nil {
		return &Audit{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_cycle_transitions_total",
		Help: "Audit cycle status transitions by target status.",
	}, []string{"status"})
	entries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_entries_total",
		Help: "Counted items by ingestion mode and outcome.",
	}, []string{"mode", "outcome"})
	bulkDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_bulk_duration_seconds",
		Help:    "Duration of bulk count transactions.",
		Buckets: prometheus.DefBuckets,
	})
	corrections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_corrections_total",
		Help: "Ledger corrections posted from audit entries by direction.",
	}, []string{"type"})
	activityDrop := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "activity_log_dropped_total",
		Help: "Activity log rows that could not be written.",
	})
	reg.MustRegister(transitions, entries, bulkDuration, corrections, activityDrop)
	return &Audit{
		transitions:  transitions,
		entries:      entries,
		bulkDuration: bulkDuration,
		corrections:  corrections,
		activityDrop: activityDrop,
	}
}

func (a *Audit) Transition(status string) {
	if a == nil || a.transitions == nil {
		return
	}
	a.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// Entries adds n to the counter for mode ("single", "bulk") and outcome
// ("ok", "failed").
func (a *Audit) Entries(mode, outcome string, n int) {
	if a == nil || a.entries == nil || n <= 0 {
		return
	}
	a.entries.WithLabelValues(normalizeLabel(mode), normalizeLabel(outcome)).Add(float64(n))
}

func (a *Audit) ObserveBulk(d time.Duration) {
	if a == nil || a.bulkDuration == nil {
		return
	}
	a.bulkDuration.Observe(d.Seconds())
}

func (a *Audit) Correction(movementType string) {
	if a == nil || a.corrections == nil {
		return
	}
	a.corrections.WithLabelValues(normalizeLabel(movementType)).Inc()
}

func (a *Audit) ActivityDropped() {
	if a == nil || a.activityDrop == nil {
		return
	}
	a.activityDrop.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
