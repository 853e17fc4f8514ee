package jobs

import (
	"flag"
	"fmt"
	"slices"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
	"github.com/cdf-forge/cdfx/pkg/contextualization"
	"github.com/cdf-forge/cdfx/pkg/jobs"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect and wait for contextualization jobs"
}

func (c *Command) Help() string {
	return `Usage: cdfx jobs <subcommand> [options]

  This command groups subcommands for following jobs launched by
  contextualization APIs. Jobs are identified by their type and id.

  Known job types: ` + strings.Join(jobTypeNames(), ", ")
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

func jobTypeNames() []string {
	names := make([]string, 0, len(contextualization.JobTypes))
	for name := range contextualization.JobTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// jobFlags are the flags identifying one job.
type jobFlags struct {
	flagType string
	flagID   int64
}

func (j *jobFlags) add(f *base.FlagSet) {
	f.StringVar(
		&j.flagType, "type", "",
		"(Required) Job type, one of: "+strings.Join(jobTypeNames(), ", ")+".",
	)
	f.Int64Var(
		&j.flagID, "id", 0,
		"(Required) Job id.",
	)
}

func (j *jobFlags) job() (*jobs.Job, error) {
	if j.flagType == "" {
		return nil, fmt.Errorf("type flag is required")
	}
	jobType, ok := contextualization.JobTypes[j.flagType]
	if !ok {
		return nil, fmt.Errorf("unknown job type %q", j.flagType)
	}
	if j.flagID <= 0 {
		return nil, fmt.Errorf("id flag is required")
	}
	return jobs.Existing(jobType, j.flagID), nil
}

func newFlagSet(name string) *base.FlagSet {
	return base.NewFlagSet(flag.NewFlagSet(name, flag.ContinueOnError))
}
