package command

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/perflog/internal/cli/output"
	"github.com/yndnr/perflog/internal/config"
	"github.com/yndnr/perflog/internal/infra/buildinfo"
	"github.com/yndnr/perflog/internal/infra/confloader"
	"github.com/yndnr/perflog/internal/telemetry/logger"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "perflog.yaml"

const stateKey = "perflog.state"

// appState is built once in Before and shared by all commands.
type appState struct {
	cfg     *config.Config
	cfgFile string
	log     logger.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "perflog",
		Usage:   "Game performance data logger",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConsoleCommand(),
			RunCommand(),
			ConvertCommand(),
			SessionCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: before,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default ./" + DefaultConfigFile + " when present)",
			EnvVars: []string{"PERFLOG_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "sessions-dir",
			Usage: "Directory holding session folders",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// before loads configuration and installs the logger.
func before(c *cli.Context) error {
	path, err := configPath(c.String("config"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(path, flagOverrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[stateKey] = &appState{
		cfg:     cfg,
		cfgFile: path,
		log:     log,
		stdout:  c.App.Writer,
		stderr:  c.App.ErrWriter,
	}
	return nil
}

// configPath resolves the configuration file to load, or "" for none.
func configPath(flag string) (string, error) {
	if flag != "" {
		if _, err := os.Stat(flag); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return flag, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	return "", nil
}

// flagOverrides maps global flags onto configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	if v := c.String("log-level"); v != "" {
		overrides["log.level"] = v
	}
	if v := c.String("sessions-dir"); v != "" {
		overrides["storage.sessions_dir"] = v
	}
	return overrides
}

// loadConfig layers defaults, file, environment and overrides.
func loadConfig(path string, overrides map[string]any) (*config.Config, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// state returns the shared state built in Before.
func state(c *cli.Context) *appState {
	if st, ok := c.App.Metadata[stateKey].(*appState); ok {
		return st
	}
	return &appState{
		cfg:    config.Default(),
		log:    logger.Default(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// formatter returns the formatter selected by --output and --wide.
func formatter(c *cli.Context, fallback output.Format) (output.Formatter, error) {
	format := fallback
	if c.IsSet("output") {
		f, err := output.ParseFormat(c.String("output"))
		if err != nil {
			return nil, err
		}
		format = f
	}
	return output.NewFormatter(format, c.Bool("wide")), nil
}

// PrintError prints an error message to stderr.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
