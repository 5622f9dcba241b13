// Package domain defines the core domain models for perflog.
//
// Domain models are pure values without IO dependencies:
//
//   - PointerPath: offset chain resolved inside the target process
//   - Sample: raw bytes observed during one polling tick
//   - Record: fixed 45-byte little-endian entry of the performance log
//   - ProcessStats: memory and I/O counters of the target process
//   - Errors: coded domain errors shared by all layers
package domain
