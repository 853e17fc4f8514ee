package relationships

import (
	"context"

	"github.com/cdf-forge/cdfx/pkg/resources"
)

// Fetcher retrieves resources of one type by external id. With
// ignoreUnknownIDs set, unknown ids are left out of the result instead of
// failing the call.
type Fetcher func(ctx context.Context, externalIDs []string, ignoreUnknownIDs bool) ([]resources.Resource, error)

// ignoreUnknownIDsSupport records which retrieve endpoints accept the
// ignoreUnknownIds flag.
var ignoreUnknownIDsSupport = map[resources.Type]bool{
	resources.TypeAsset:      true,
	resources.TypeTimeSeries: true,
	resources.TypeEvent:      true,
	resources.TypeFile:       false,
	resources.TypeSequence:   false,
}

// IgnoreUnknownIDsSupported reports whether the retrieve endpoint of t
// accepts the ignoreUnknownIds flag.
func IgnoreUnknownIDsSupported(t resources.Type) bool {
	return ignoreUnknownIDsSupport[t]
}

// FetchersFor returns a fetcher for every resource type c serves.
func FetchersFor(c *resources.Client) map[resources.Type]Fetcher {
	return map[resources.Type]Fetcher{
		resources.TypeAsset:      fetcherFor(c.Assets),
		resources.TypeTimeSeries: fetcherFor(c.TimeSeries),
		resources.TypeEvent:      fetcherFor(c.Events),
		resources.TypeFile:       fetcherFor(c.Files),
		resources.TypeSequence:   fetcherFor(c.Sequences),
	}
}

func fetcherFor[T resources.Resource](api *resources.API[T]) Fetcher {
	return func(ctx context.Context, externalIDs []string, ignoreUnknownIDs bool) ([]resources.Resource, error) {
		items, err := api.RetrieveMultiple(ctx, externalIDs, ignoreUnknownIDs)
		if err != nil {
			return nil, err
		}

		out := make([]resources.Resource, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out, nil
	}
}
