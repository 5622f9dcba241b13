// Package repl provides the interactive operator console of perflog.
//
// The console mirrors the original control window one command per button:
//
//   - repl.go: Console loop, timestamped status lines
//   - commands.go: Command table and handlers
//   - completer.go: Command abbreviation and suggestions
//   - history.go: Command history persistence
//
// Every handler prints one status line prefixed with [HH:MM:SS.mmm]. Errors
// are printed in red and never end the loop.
package repl
