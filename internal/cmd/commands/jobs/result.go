package jobs

import (
	"github.com/cdf-forge/cdfx/internal/cmd/base"
)

type ResultCommand struct {
	*base.Command

	jobFlags
}

func (c *ResultCommand) Synopsis() string {
	return "Print the result of a job"
}

func (c *ResultCommand) Help() string {
	return `Usage: cdfx jobs result -type=<type> -id=<id>

  This command waits for a job to complete and prints its result.` +
		c.Flags().Help()
}

func (c *ResultCommand) Flags() *base.FlagSet {
	f := newFlagSet("result")
	c.ConnectionFlags(f)
	c.jobFlags.add(f)
	return f
}

func (c *ResultCommand) Run(args []string) int {
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

	result, err := env.Tracker.Result(c.Ctx(), job)
	if err != nil {
		return c.Errorf("error getting job result: %v", err)
	}

	if err := c.Output(result); err != nil {
		return c.Errorf("%v", err)
	}
	return 0
}
