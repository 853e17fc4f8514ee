// Package relationships lists relationship edges and resolves both ends of
// each edge to full resource objects.
package relationships

import (
	"github.com/cdf-forge/cdfx/pkg/resources"
)

// Relationship is an edge between two resources, referenced by type and
// external id.
type Relationship struct {
	ExternalID       string            `json:"externalId"`
	SourceExternalID string            `json:"sourceExternalId"`
	SourceType       resources.Type    `json:"sourceType"`
	TargetExternalID string            `json:"targetExternalId"`
	TargetType       resources.Type    `json:"targetType"`
	StartTime        *int64            `json:"startTime,omitempty"`
	EndTime          *int64            `json:"endTime,omitempty"`
	Confidence       *float64          `json:"confidence,omitempty"`
	DataSetID        *int64            `json:"dataSetId,omitempty"`
	Labels           []resources.Label `json:"labels,omitempty"`
	CreatedTime      int64             `json:"createdTime,omitempty"`
	LastUpdatedTime  int64             `json:"lastUpdatedTime,omitempty"`
}

// SourceRef returns the reference to the source end of the edge.
func (r Relationship) SourceRef() ResourceRef {
	return ResourceRef{Type: r.SourceType, ExternalID: r.SourceExternalID}
}

// TargetRef returns the reference to the target end of the edge.
func (r Relationship) TargetRef() ResourceRef {
	return ResourceRef{Type: r.TargetType, ExternalID: r.TargetExternalID}
}

// ResourceRef identifies a resource by type and external id.
type ResourceRef struct {
	Type       resources.Type
	ExternalID string
}

func (r ResourceRef) String() string {
	return string(r.Type) + ":" + r.ExternalID
}

// RelationshipWithResources is an edge together with its resolved ends.
type RelationshipWithResources struct {
	Relationship Relationship
	Source       resources.Resource
	Target       resources.Resource
}

// TimeRange is an inclusive range of epoch milliseconds. Either end may be
// left open.
type TimeRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// LabelFilter matches edges by label external id.
type LabelFilter struct {
	ContainsAny []resources.Label `json:"containsAny,omitempty"`
	ContainsAll []resources.Label `json:"containsAll,omitempty"`
}

// Filter is the server-side filter of the relationship listing endpoint.
type Filter struct {
	SourceExternalIDs []string             `json:"sourceExternalIds,omitempty"`
	SourceTypes       []resources.Type     `json:"sourceTypes,omitempty"`
	TargetExternalIDs []string             `json:"targetExternalIds,omitempty"`
	TargetTypes       []resources.Type     `json:"targetTypes,omitempty"`
	Labels            *LabelFilter         `json:"labels,omitempty"`
	DataSetIDs        []resources.Identity `json:"dataSetIds,omitempty"`
	CreatedTime       *TimeRange           `json:"createdTime,omitempty"`
	ActiveAtTime      *TimeRange           `json:"activeAtTime,omitempty"`
}
