// Package output provides output formatting for the perflog CLI.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: Table rendering with wide mode and human-readable cells
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//   - spinner.go: Progress animation for long conversions
//
// Struct fields take their column names from json tags. A table tag tunes a
// column: "-" hides it, "wide" shows it only in wide mode, "bytes" renders an
// IEC size and "ago" a relative time.
package output
