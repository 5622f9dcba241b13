// Package perflog stores the binary performance log.
//
// The log is a flat sequence of domain.Record values, RecordSize bytes each,
// with no header and no framing. It is only ever appended to. Readers drop a
// trailing partial record, which can appear if the process dies mid-write.
package perflog
