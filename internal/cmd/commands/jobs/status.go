package jobs

import (
	"github.com/cdf-forge/cdfx/internal/cmd/base"
)

type StatusCommand struct {
	*base.Command

	jobFlags
}

func (c *StatusCommand) Synopsis() string {
	return "Show the current status of a job"
}

func (c *StatusCommand) Help() string {
	return `Usage: cdfx jobs status -type=<type> -id=<id>

  This command fetches the status of a job once and prints it.` +
		c.Flags().Help()
}

func (c *StatusCommand) Flags() *base.FlagSet {
	f := newFlagSet("status")
	c.ConnectionFlags(f)
	c.jobFlags.add(f)
	return f
}

func (c *StatusCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		return c.Errorf("error parsing flags: %v", err)
	}

	job, err := c.job()
	if err != nil {
		return c.Errorf("%v", err)
	}

	env, err := c.Setup()
	if err != nil {
		return c.Errorf("error initializing client: %v", err)
	}
	defer c.Finish(env)

	if _, err := env.Tracker.UpdateStatus(c.Ctx(), job); err != nil {
		return c.Errorf("error fetching job status: %v", err)
	}

	if err := c.Output(job); err != nil {
		return c.Errorf("%v", err)
	}
	return 0
}
