package auth

import (
	"github.com/mitchellh/cli"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect OAuth credentials"
}

func (c *Command) Help() string {
	return `Usage: cdfx auth <subcommand> [options]

  This command groups subcommands for checking the configured credentials.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
