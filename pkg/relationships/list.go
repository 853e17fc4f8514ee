package relationships

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultListLimit is the number of edges listed when no limit is given.
	DefaultListLimit = 25

	listPageSize = 1000
)

// Transport performs JSON POST requests against the project API.
// *client.Client implements it.
type Transport interface {
	Post(ctx context.Context, path string, body, out any) error
}

// API lists relationships.
type API struct {
	transport Transport
	logger    hclog.Logger
}

// NewAPI creates a relationship API on top of transport.
func NewAPI(transport Transport, logger hclog.Logger) *API {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &API{
		transport: transport,
		logger:    logger.Named("relationships"),
	}
}

type listRequest struct {
	Filter Filter `json:"filter"`
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

type listResponse struct {
	Items      []Relationship `json:"items"`
	NextCursor string         `json:"nextCursor"`
}

// List returns the edges matching filter in server order. A zero limit
// returns at most DefaultListLimit edges and a negative limit returns all of
// them, following cursors page by page.
func (a *API) List(ctx context.Context, filter Filter, limit int) ([]Relationship, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}

	var (
		edges  []Relationship
		cursor string
	)
	for {
		pageSize := listPageSize
		if limit > 0 {
			pageSize = min(pageSize, limit-len(edges))
		}

		var resp listResponse
		err := a.transport.Post(ctx, "/relationships/list", listRequest{
			Filter: filter,
			Limit:  pageSize,
			Cursor: cursor,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("failed to list relationships: %w", err)
		}

		edges = append(edges, resp.Items...)
		cursor = resp.NextCursor

		if cursor == "" || len(resp.Items) == 0 || (limit > 0 && len(edges) >= limit) {
			break
		}
	}

	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}

	a.logger.Debug("listed relationships", "count", len(edges))
	return edges, nil
}
