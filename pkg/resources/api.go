package resources

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/cdf-forge/cdfx/pkg/concurrency"
	"github.com/cdf-forge/cdfx/pkg/metrics"
)

// RetrieveChunkSize is the largest number of ids sent in one byids request.
const RetrieveChunkSize = 1000

// Transport performs JSON POST requests against the project API.
// *client.Client implements it.
type Transport interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Config configures the resource APIs.
type Config struct {
	// Workers bounds the number of concurrent byids requests per call.
	// Default: concurrency.DefaultMaxWorkers.
	Workers int

	Logger  hclog.Logger
	Metrics *metrics.Collector
}

// API retrieves resources of one type.
type API[T Resource] struct {
	transport    Transport
	path         string
	resourceType Type
	workers      int
	logger       hclog.Logger
	metrics      *metrics.Collector
}

func newAPI[T Resource](transport Transport, path string, resourceType Type, cfg Config) *API[T] {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = concurrency.DefaultMaxWorkers
	}

	return &API[T]{
		transport:    transport,
		path:         path,
		resourceType: resourceType,
		workers:      workers,
		logger:       logger.Named(string(resourceType)),
		metrics:      cfg.Metrics,
	}
}

// Path returns the API path, e.g. "/assets".
func (a *API[T]) Path() string {
	return a.path
}

// ResourceType returns the type of resource this API serves.
func (a *API[T]) ResourceType() Type {
	return a.resourceType
}

type byIDsRequest struct {
	Items            []Identity `json:"items"`
	IgnoreUnknownIDs bool       `json:"ignoreUnknownIds,omitempty"`
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

// RetrieveMultiple fetches resources by external id. Requests are split into
// chunks of RetrieveChunkSize ids and results keep the order of the chunks.
// With ignoreUnknownIDs set, ids the server does not know are left out of the
// result instead of failing the call.
func (a *API[T]) RetrieveMultiple(ctx context.Context, externalIDs []string, ignoreUnknownIDs bool) ([]T, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}

	chunks := concurrency.Chunk(externalIDs, RetrieveChunkSize)

	retrieve := func(ctx context.Context, ids []string) ([]T, error) {
		req := byIDsRequest{
			Items:            make([]Identity, len(ids)),
			IgnoreUnknownIDs: ignoreUnknownIDs,
		}
		for i, id := range ids {
			req.Items[i] = Identity{ExternalID: id}
		}

		var resp itemsResponse[T]
		if err := a.transport.Post(ctx, a.path+"/byids", req, &resp); err != nil {
			return nil, err
		}
		return resp.Items, nil
	}

	results, err := concurrency.ExecuteTasks(ctx, retrieve, chunks, a.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s resources: %w", a.resourceType, err)
	}

	items := slices.Concat(results...)
	a.metrics.RecordResourceFetch(string(a.resourceType), len(items))
	a.logger.Debug("retrieved resources",
		"requested", len(externalIDs),
		"found", len(items),
		"chunks", len(chunks),
	)

	return items, nil
}

// Client bundles the APIs of every resource type a relationship can
// reference.
type Client struct {
	Assets     *API[Asset]
	TimeSeries *API[TimeSeries]
	Events     *API[Event]
	Files      *API[File]
	Sequences  *API[Sequence]
}

// NewClient creates the resource APIs on top of transport.
func NewClient(transport Transport, cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	cfg.Logger = cfg.Logger.Named("resources")

	return &Client{
		Assets:     newAPI[Asset](transport, "/assets", TypeAsset, cfg),
		TimeSeries: newAPI[TimeSeries](transport, "/timeseries", TypeTimeSeries, cfg),
		Events:     newAPI[Event](transport, "/events", TypeEvent, cfg),
		Files:      newAPI[File](transport, "/files", TypeFile, cfg),
		Sequences:  newAPI[Sequence](transport, "/sequences", TypeSequence, cfg),
	}
}
