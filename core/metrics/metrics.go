package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters reported by the reconciliation engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reconciliations *prometheus.CounterVec
	dropped         prometheus.Counter
	fallbacks       prometheus.Counter
	classifications *prometheus.CounterVec
}

// New creates the counters and registers them on reg. A nil reg skips registration.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reattach",
			Name:      "reconciliations_total",
			Help:      "Wrappers and proxies serialized or rehydrated, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reattach",
			Name:      "dropped_elements_total",
			Help:      "Snapshot members dropped because their row no longer exists.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reattach",
			Name:      "fallback_reloads_total",
			Help:      "Collections rebuilt by reloading the association instead of from their descriptor.",
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reattach",
			Name:      "classifications_total",
			Help:      "Types classified, by result.",
		}, []string{"result"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.reconciliations, m.dropped, m.fallbacks, m.classifications} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Reconciled counts one serialization or rehydration.
func (m *Metrics) Reconciled(kind, outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(kind, outcome).Inc()
}

// Dropped counts one snapshot member dropped because its row is gone.
func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// Fallback counts one association reload.
func (m *Metrics) Fallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// Classified counts one committed classification.
func (m *Metrics) Classified(result string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(result).Inc()
}
