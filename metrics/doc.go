// Package metrics defines the Observer interface through which a memory
// index reports lifecycle events, plus two implementations: NoopObserver
// (the default) and PrometheusObserver.
//
//	obs := metrics.NewPrometheusObserver(nil) // default registerer
//	idx := memoryindex.New(s, invert, push, memoryindex.WithMetrics(obs))
//
// Exported series live under the lexgo namespace: inserts, removes and
// frozen-rejected writes as counters, commit and dump latency as
// histograms, and document/word/memory gauges refreshed after each commit.
package metrics
