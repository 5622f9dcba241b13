// Package command provides the perflog command-line interface.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, configuration and logger setup
//   - services.go: Catalog, metrics and orchestrator wiring shared by commands
//   - console.go: Interactive operator console
//   - run.go: Headless session until SIGINT/SIGTERM
//   - convert.go: Binary log to CSV conversion
//   - session.go: Session listing
//   - config.go: Effective configuration display
//   - version.go: Build information
package command
