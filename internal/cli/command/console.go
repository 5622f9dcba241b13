package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/perflog/internal/cli/repl"
	"github.com/yndnr/perflog/internal/config"
	"github.com/yndnr/perflog/internal/infra/confloader"
	"github.com/yndnr/perflog/internal/infra/fswatch"
	"github.com/yndnr/perflog/internal/infra/shutdown"
	"github.com/yndnr/perflog/internal/telemetry/logger"
)

// ConsoleCommand returns the interactive console command.
func ConsoleCommand() *cli.Command {
	return &cli.Command{
		Name:    "console",
		Aliases: []string{"ui"},
		Usage:   "Drive a session interactively",
		Action:  consoleAction,
	}
}

func consoleAction(c *cli.Context) error {
	st := state(c)

	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()

	svc, err := newServices(ctx, st)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			st.log.Error("close failed", "error", err)
		}
	}()

	r := repl.New(svc.orch, repl.Config{
		Target:  targetLine(&st.cfg.Target),
		Process: st.cfg.Target.Process,
	}, repl.WithIO(c.App.Reader, st.stdout))

	if st.cfgFile != "" {
		stopWatch, err := watchLogLevel(st, c.String("log-level"), r)
		if err != nil {
			st.log.Warn("configuration reload disabled", "error", err)
		} else {
			defer stopWatch()
		}
	}

	return r.Run(ctx)
}

// watchLogLevel reapplies log.level whenever the configuration file
// changes. A --log-level flag keeps precedence.
func watchLogLevel(st *appState, flagLevel string, r *repl.REPL) (func(), error) {
	w, err := fswatch.New(fswatch.WithLogger(st.log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.WatchFile(st.cfgFile); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg := config.Default()
		if err := confloader.NewLoader(confloader.WithConfigFile(st.cfgFile)).Load(cfg); err != nil {
			r.Warnf("Configuration not reloaded: %v", err)
			return
		}
		level := cfg.Log.Level
		if flagLevel != "" {
			level = flagLevel
		}
		if level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(level); err != nil {
			r.Warnf("Configuration not reloaded: %v", err)
			return
		}
		r.Infof("Configuration reloaded, log level is %s", logger.GetLevel())
	})
	w.StartAsync()

	return func() { _ = w.Stop() }, nil
}

// targetLine describes the configured game build.
func targetLine(t *config.TargetSection) string {
	var b strings.Builder
	b.WriteString(t.Name)
	if t.Version != "" {
		fmt.Fprintf(&b, " v. %s", t.Version)
	}
	if t.Checksum != "" {
		fmt.Fprintf(&b, " (%s)", t.Checksum)
	}
	if t.Platform != "" {
		fmt.Fprintf(&b, " - %s", t.Platform)
	}
	return strings.TrimSpace(b.String())
}
