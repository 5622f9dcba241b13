package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/perflog/internal/cli/output"
	"github.com/yndnr/perflog/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "defaults",
						Usage: "Show built-in defaults instead",
					},
				},
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the effective configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	st := state(c)

	cfg := st.cfg
	if c.Bool("defaults") {
		cfg = config.Default()
	}

	f, err := formatter(c, output.FormatYAML)
	if err != nil {
		return err
	}
	return f.Format(st.stdout, cfg)
}

func configValidate(c *cli.Context) error {
	st := state(c)

	if err := config.Verify(st.cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	source := st.cfgFile
	if source == "" {
		source = "defaults and environment"
	}
	fmt.Fprintf(st.stdout, "configuration OK (%s)\n", source)
	return nil
}
