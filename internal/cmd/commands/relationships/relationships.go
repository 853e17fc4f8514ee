package relationships

import (
	"github.com/mitchellh/cli"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Query relationships between resources"
}

func (c *Command) Help() string {
	return `Usage: cdfx relationships <subcommand> [options]

  This command groups subcommands for listing relationships and resolving
  the resources at both ends.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
