// Package main provides the entry point for perflog.
//
// perflog records game performance data from a running game process and
// archives its saved games:
//
//   - console: interactive session control
//   - run: headless capture until SIGINT/SIGTERM
//   - convert: binary log to CSV export
//   - session: recorded session listing
//
// Usage:
//
//	perflog console
//	perflog run --name campaign --saves ~/Documents/Paradox/save\ games
//	perflog convert --speed 3 campaign
package main
