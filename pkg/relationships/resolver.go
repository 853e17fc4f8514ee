package relationships

import (
	"context"
	"iter"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/cdf-forge/cdfx/pkg/concurrency"
	"github.com/cdf-forge/cdfx/pkg/resources"
)

// Lister lists relationship edges. *API implements it.
type Lister interface {
	List(ctx context.Context, filter Filter, limit int) ([]Relationship, error)
}

// Predicate decides whether a resolved resource belongs in the output.
type Predicate interface {
	IsInside(resource resources.Resource) bool
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(resources.Resource) bool

func (f PredicateFunc) IsInside(resource resources.Resource) bool {
	return f(resource)
}

// AcceptAll is the Predicate used when none is given.
var AcceptAll Predicate = PredicateFunc(func(resources.Resource) bool { return true })

// QueryOptions selects the edges to resolve.
type QueryOptions struct {
	// Sources and Targets restrict edges to these resources. Each resource
	// contributes its external id and type to the listing filter.
	Sources []resources.Resource
	Targets []resources.Resource

	SourceExternalIDs []string
	SourceTypes       []resources.Type
	TargetExternalIDs []string
	TargetTypes       []resources.Type

	Labels       *LabelFilter
	DataSetIDs   []int64
	CreatedTime  *TimeRange
	ActiveAtTime *TimeRange

	// Limit caps the number of listed edges. Zero uses DefaultListLimit and a
	// negative value lists every matching edge.
	Limit int

	// SourcesFilter and TargetsFilter drop edges whose resolved ends they
	// reject. Default: AcceptAll.
	SourcesFilter Predicate
	TargetsFilter Predicate
}

// filter builds the listing filter for the options.
func (o QueryOptions) filter() Filter {
	f := Filter{
		SourceExternalIDs: slices.Clone(o.SourceExternalIDs),
		SourceTypes:       slices.Clone(o.SourceTypes),
		TargetExternalIDs: slices.Clone(o.TargetExternalIDs),
		TargetTypes:       slices.Clone(o.TargetTypes),
		Labels:            o.Labels,
		CreatedTime:       o.CreatedTime,
		ActiveAtTime:      o.ActiveAtTime,
	}

	for _, r := range o.Sources {
		f.SourceExternalIDs = appendUnique(f.SourceExternalIDs, r.GetExternalID())
		f.SourceTypes = appendUnique(f.SourceTypes, r.ResourceType())
	}
	for _, r := range o.Targets {
		f.TargetExternalIDs = appendUnique(f.TargetExternalIDs, r.GetExternalID())
		f.TargetTypes = appendUnique(f.TargetTypes, r.ResourceType())
	}
	for _, id := range o.DataSetIDs {
		f.DataSetIDs = append(f.DataSetIDs, resources.Identity{ID: id})
	}

	return f
}

func appendUnique[T comparable](items []T, item T) []T {
	if slices.Contains(items, item) {
		return items
	}
	return append(items, item)
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Workers bounds the number of resource types fetched concurrently.
	// Default: concurrency.DefaultMaxWorkers.
	Workers int

	Logger hclog.Logger
}

// Resolver lists relationship edges and resolves their ends. Nothing is
// cached between queries.
type Resolver struct {
	lister   Lister
	fetchers map[resources.Type]Fetcher
	workers  int
	logger   hclog.Logger
}

// NewResolver creates a Resolver that lists edges with lister and resolves
// them with the per-type fetchers.
func NewResolver(lister Lister, fetchers map[resources.Type]Fetcher, cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = concurrency.DefaultMaxWorkers
	}

	return &Resolver{
		lister:   lister,
		fetchers: fetchers,
		workers:  workers,
		logger:   logger.Named("resolver"),
	}
}

// typeBatch is every external id of one type referenced by the listed edges.
type typeBatch struct {
	Type        resources.Type
	ExternalIDs []string
}

// Query lists the edges selected by opts and resolves both ends of every
// edge, fetching each resource type with one batched call.
//
// All fetches finish before Query returns. If any fetch fails Query returns
// that error and no edges; with several failures the one for the type that
// appeared first in the listing wins. The returned sequence yields edges in
// listing order and can be ranged over once. Edges with an end that could not
// be resolved, or that a filter rejects, are left out.
func (r *Resolver) Query(ctx context.Context, opts QueryOptions) (iter.Seq[RelationshipWithResources], error) {
	edges, err := r.lister.List(ctx, opts.filter(), opts.Limit)
	if err != nil {
		return nil, err
	}

	resolved, err := r.resolve(ctx, edges)
	if err != nil {
		return nil, err
	}

	sources := opts.SourcesFilter
	if sources == nil {
		sources = AcceptAll
	}
	targets := opts.TargetsFilter
	if targets == nil {
		targets = AcceptAll
	}

	consumed := false
	return func(yield func(RelationshipWithResources) bool) {
		if consumed {
			return
		}
		consumed = true

		for _, edge := range edges {
			source, ok := resolved[edge.SourceRef()]
			if !ok {
				continue
			}
			target, ok := resolved[edge.TargetRef()]
			if !ok {
				continue
			}

			if !sources.IsInside(source) || !targets.IsInside(target) {
				continue
			}

			if !yield(RelationshipWithResources{
				Relationship: edge,
				Source:       source,
				Target:       target,
			}) {
				return
			}
		}
	}, nil
}

// resolve fetches every resource referenced by edges. A reference that the
// server does not return is simply absent from the map.
func (r *Resolver) resolve(ctx context.Context, edges []Relationship) (map[ResourceRef]resources.Resource, error) {
	batches := r.batches(edges)

	fetch := func(ctx context.Context, batch typeBatch) ([]resources.Resource, error) {
		fetcher := r.fetchers[batch.Type]
		return fetcher(ctx, batch.ExternalIDs, IgnoreUnknownIDsSupported(batch.Type))
	}

	results, err := concurrency.ExecuteTasks(ctx, fetch, batches, r.workers)
	if err != nil {
		return nil, err
	}

	resolved := make(map[ResourceRef]resources.Resource)
	for i, batch := range batches {
		for _, resource := range results[i] {
			resolved[ResourceRef{Type: batch.Type, ExternalID: resource.GetExternalID()}] = resource
		}
	}

	r.logger.Debug("resolved relationship resources",
		"edges", len(edges),
		"types", len(batches),
		"resources", len(resolved),
	)

	return resolved, nil
}

// batches groups the distinct references of edges by type, in order of first
// appearance. Types without a fetcher are skipped and their edges dropped.
func (r *Resolver) batches(edges []Relationship) []typeBatch {
	var (
		batches []typeBatch
		index   = make(map[resources.Type]int)
		seen    = make(map[ResourceRef]bool)
		skipped = make(map[resources.Type]bool)
	)

	add := func(ref ResourceRef) {
		if seen[ref] {
			return
		}
		seen[ref] = true

		if _, ok := r.fetchers[ref.Type]; !ok {
			if !skipped[ref.Type] {
				skipped[ref.Type] = true
				r.logger.Warn("no fetcher for resource type, dropping its edges", "type", ref.Type)
			}
			return
		}

		i, ok := index[ref.Type]
		if !ok {
			i = len(batches)
			index[ref.Type] = i
			batches = append(batches, typeBatch{Type: ref.Type})
		}
		batches[i].ExternalIDs = append(batches[i].ExternalIDs, ref.ExternalID)
	}

	for _, edge := range edges {
		add(edge.SourceRef())
		add(edge.TargetRef())
	}

	return batches
}
