package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
	"github.com/cdf-forge/cdfx/pkg/jobs"
)

type WaitCommand struct {
	*base.Command

	jobFlags
	flagTimeout time.Duration
}

func (c *WaitCommand) Synopsis() string {
	return "Wait for a job to finish"
}

func (c *WaitCommand) Help() string {
	return `Usage: cdfx jobs wait -type=<type> -id=<id>

  This command polls a job until it completes or fails and prints its final
  status. The exit code is 2 when the job failed.` +
		c.Flags().Help()
}

func (c *WaitCommand) Flags() *base.FlagSet {
	f := newFlagSet("wait")
	c.ConnectionFlags(f)
	c.jobFlags.add(f)
	f.DurationVar(
		&c.flagTimeout, "timeout", 0,
		"Stop waiting after this long. Zero waits forever.",
	)
	return f
}

func (c *WaitCommand) Run(args []string) int {
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

	ctx := c.Ctx()
	if c.flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.flagTimeout)
		defer cancel()
	}

	err = env.Tracker.WaitForCompletion(ctx, job)
	if err != nil && !errors.Is(err, jobs.ErrJobFailed) {
		return c.Errorf("error waiting for job: %v", err)
	}

	if outErr := c.Output(job); outErr != nil {
		return c.Errorf("%v", outErr)
	}

	if err != nil {
		c.UI.Error(err.Error())
		return 2
	}
	return 0
}
