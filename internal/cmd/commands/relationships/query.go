package relationships

import (
	"flag"
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
	"github.com/cdf-forge/cdfx/pkg/relationships"
	"github.com/cdf-forge/cdfx/pkg/resources"
)

type QueryCommand struct {
	*base.Command

	flagSourceIDs     base.StringSliceVar
	flagSourceTypes   base.StringSliceVar
	flagTargetIDs     base.StringSliceVar
	flagTargetTypes   base.StringSliceVar
	flagLabels        base.StringSliceVar
	flagDataSetIDs    int64SliceVar
	flagActiveAt      string
	flagCreatedAfter  string
	flagCreatedBefore string
	flagLimit         int
}

func (c *QueryCommand) Synopsis() string {
	return "List relationships with their resolved source and target"
}

func (c *QueryCommand) Help() string {
	return `Usage: cdfx relationships query [options]

  This command lists the relationships matching the filter flags, fetches
  the resources at both ends and prints every relationship whose source and
  target could be resolved.

  Times accept most common formats, for example "2024-03-01",
  "2024-03-01T12:00:00Z" or "1709294400000".` +
		c.Flags().Help()
}

func (c *QueryCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("query", flag.ContinueOnError))
	c.ConnectionFlags(f)

	f.Var(&c.flagSourceIDs, "source-ids", "Comma separated source external ids.")
	f.Var(&c.flagSourceTypes, "source-types", "Comma separated source resource types.")
	f.Var(&c.flagTargetIDs, "target-ids", "Comma separated target external ids.")
	f.Var(&c.flagTargetTypes, "target-types", "Comma separated target resource types.")
	f.Var(&c.flagLabels, "labels", "Only relationships with any of these label external ids.")
	f.Var(&c.flagDataSetIDs, "data-set-ids", "Comma separated data set ids.")
	f.StringVar(
		&c.flagActiveAt, "active-at", "",
		"Only relationships active at this time.",
	)
	f.StringVar(
		&c.flagCreatedAfter, "created-after", "",
		"Only relationships created at or after this time.",
	)
	f.StringVar(
		&c.flagCreatedBefore, "created-before", "",
		"Only relationships created at or before this time.",
	)
	f.IntVar(
		&c.flagLimit, "limit", relationships.DefaultListLimit,
		"Maximum number of relationships to list. Use -1 for all.",
	)

	return f
}

// resolvedRelationship is the printed form of one result.
type resolvedRelationship struct {
	Relationship relationships.Relationship `json:"relationship"`
	Source       resources.Resource         `json:"source"`
	Target       resources.Resource         `json:"target"`
}

func (c *QueryCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		return c.Errorf("error parsing flags: %v", err)
	}

	opts, err := c.queryOptions()
	if err != nil {
		return c.Errorf("%v", err)
	}

	env, err := c.Setup()
	if err != nil {
		return c.Errorf("error initializing client: %v", err)
	}
	defer c.Finish(env)

	seq, err := env.Resolver.Query(c.Ctx(), opts)
	if err != nil {
		return c.Errorf("error querying relationships: %v", err)
	}

	out := []resolvedRelationship{}
	for r := range seq {
		out = append(out, resolvedRelationship{
			Relationship: r.Relationship,
			Source:       r.Source,
			Target:       r.Target,
		})
	}

	if err := c.Output(out); err != nil {
		return c.Errorf("%v", err)
	}
	return 0
}

func (c *QueryCommand) queryOptions() (relationships.QueryOptions, error) {
	opts := relationships.QueryOptions{
		DataSetIDs: c.flagDataSetIDs,
		Limit:      c.flagLimit,
	}

	var err error
	if opts.SourceTypes, err = parseTypes(c.flagSourceTypes); err != nil {
		return opts, err
	}
	if opts.TargetTypes, err = parseTypes(c.flagTargetTypes); err != nil {
		return opts, err
	}

	opts.SourceExternalIDs = c.flagSourceIDs
	opts.TargetExternalIDs = c.flagTargetIDs

	if len(c.flagLabels) > 0 {
		labels := &relationships.LabelFilter{}
		for _, l := range c.flagLabels {
			labels.ContainsAny = append(labels.ContainsAny, resources.Label{ExternalID: l})
		}
		opts.Labels = labels
	}

	if c.flagActiveAt != "" {
		at, err := parseTime("active-at", c.flagActiveAt)
		if err != nil {
			return opts, err
		}
		opts.ActiveAtTime = &relationships.TimeRange{Min: &at, Max: &at}
	}

	if c.flagCreatedAfter != "" || c.flagCreatedBefore != "" {
		created := &relationships.TimeRange{}
		if c.flagCreatedAfter != "" {
			after, err := parseTime("created-after", c.flagCreatedAfter)
			if err != nil {
				return opts, err
			}
			created.Min = &after
		}
		if c.flagCreatedBefore != "" {
			before, err := parseTime("created-before", c.flagCreatedBefore)
			if err != nil {
				return opts, err
			}
			created.Max = &before
		}
		opts.CreatedTime = created
	}

	return opts, nil
}

func parseTypes(names []string) ([]resources.Type, error) {
	var types []resources.Type
	for _, name := range names {
		t := resources.Type(name)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown resource type %q", name)
		}
		types = append(types, t)
	}
	return types, nil
}

// parseTime returns the epoch milliseconds of a time in any format
// dateparse understands. Times without a zone are UTC.
func parseTime(flagName, value string) (int64, error) {
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid %s time %q: %w", flagName, value, err)
	}
	return t.UnixMilli(), nil
}
