package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/perflog/internal/cli/output"
	"github.com/yndnr/perflog/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			st := state(c)
			f, err := formatter(c, output.FormatTable)
			if err != nil {
				return err
			}
			return f.Format(st.stdout, buildinfo.Get())
		},
	}
}
