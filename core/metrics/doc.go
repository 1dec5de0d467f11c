// Package metrics exposes Prometheus counters for the reconciliation engine.
//
// # Usage
//
//	m, err := metrics.New(prometheus.DefaultRegisterer)
//	b := bridge.New(factory, intro, cfg, logger, bridge.WithMetrics(m))
//
// Every method is safe on a nil *Metrics, so components can run without instrumentation.
package metrics
