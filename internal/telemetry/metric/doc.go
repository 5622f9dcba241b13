// Package metric provides Prometheus metrics for perflog.
//
// Metrics describe the tool itself (samples taken, records written, failed
// reads, archived saves), never the sampled game data. They are exposed at
// /metrics when a listen address is configured.
package metric
