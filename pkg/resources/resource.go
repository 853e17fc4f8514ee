// Package resources holds the resource types that relationships point at and
// the batched by-external-id retrieval used to resolve them.
package resources

// Type names a resource type as it appears in relationship edges.
type Type string

const (
	TypeAsset      Type = "asset"
	TypeTimeSeries Type = "timeSeries"
	TypeEvent      Type = "event"
	TypeFile       Type = "file"
	TypeSequence   Type = "sequence"
)

// Types lists every resource type a relationship can reference.
var Types = []Type{TypeAsset, TypeTimeSeries, TypeEvent, TypeFile, TypeSequence}

// Valid reports whether t is a known resource type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Resource is any object a relationship edge can resolve to.
type Resource interface {
	ResourceType() Type
	GetExternalID() string
}

// Identity identifies a resource by internal or external id.
type Identity struct {
	ID         int64  `json:"id,omitempty"`
	ExternalID string `json:"externalId,omitempty"`
}

// Label is a reference to a label definition.
type Label struct {
	ExternalID string `json:"externalId"`
}

// Asset is a node in an asset hierarchy.
type Asset struct {
	ID               int64             `json:"id"`
	ExternalID       string            `json:"externalId,omitempty"`
	Name             string            `json:"name"`
	ParentID         int64             `json:"parentId,omitempty"`
	ParentExternalID string            `json:"parentExternalId,omitempty"`
	RootID           int64             `json:"rootId,omitempty"`
	Description      string            `json:"description,omitempty"`
	Source           string            `json:"source,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	Labels           []Label           `json:"labels,omitempty"`
	DataSetID        int64             `json:"dataSetId,omitempty"`
	CreatedTime      int64             `json:"createdTime,omitempty"`
	LastUpdatedTime  int64             `json:"lastUpdatedTime,omitempty"`
}

func (Asset) ResourceType() Type { return TypeAsset }
func (a Asset) GetExternalID() string { return a.ExternalID }

// Event is something that happened over a time interval.
type Event struct {
	ID              int64             `json:"id"`
	ExternalID      string            `json:"externalId,omitempty"`
	StartTime       int64             `json:"startTime,omitempty"`
	EndTime         int64             `json:"endTime,omitempty"`
	Type            string            `json:"type,omitempty"`
	Subtype         string            `json:"subtype,omitempty"`
	Description     string            `json:"description,omitempty"`
	Source          string            `json:"source,omitempty"`
	AssetIDs        []int64           `json:"assetIds,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	DataSetID       int64             `json:"dataSetId,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`
}

func (Event) ResourceType() Type { return TypeEvent }
func (e Event) GetExternalID() string { return e.ExternalID }

// TimeSeries is metadata for a series of datapoints.
type TimeSeries struct {
	ID              int64             `json:"id"`
	ExternalID      string            `json:"externalId,omitempty"`
	Name            string            `json:"name,omitempty"`
	IsString        bool              `json:"isString"`
	IsStep          bool              `json:"isStep"`
	Unit            string            `json:"unit,omitempty"`
	AssetID         int64             `json:"assetId,omitempty"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	DataSetID       int64             `json:"dataSetId,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`
}

func (TimeSeries) ResourceType() Type { return TypeTimeSeries }
func (ts TimeSeries) GetExternalID() string { return ts.ExternalID }

// File is metadata for an uploaded file.
type File struct {
	ID              int64             `json:"id"`
	ExternalID      string            `json:"externalId,omitempty"`
	Name            string            `json:"name"`
	Directory       string            `json:"directory,omitempty"`
	MimeType        string            `json:"mimeType,omitempty"`
	Source          string            `json:"source,omitempty"`
	AssetIDs        []int64           `json:"assetIds,omitempty"`
	Labels          []Label           `json:"labels,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Uploaded        bool              `json:"uploaded"`
	DataSetID       int64             `json:"dataSetId,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`
}

func (File) ResourceType() Type { return TypeFile }
func (f File) GetExternalID() string { return f.ExternalID }

// SequenceColumn describes one column of a sequence.
type SequenceColumn struct {
	ExternalID  string            `json:"externalId"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	ValueType   string            `json:"valueType,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Sequence is metadata for a table of rows indexed by row number.
type Sequence struct {
	ID              int64             `json:"id"`
	ExternalID      string            `json:"externalId,omitempty"`
	Name            string            `json:"name,omitempty"`
	Description     string            `json:"description,omitempty"`
	AssetID         int64             `json:"assetId,omitempty"`
	Columns         []SequenceColumn  `json:"columns,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	DataSetID       int64             `json:"dataSetId,omitempty"`
	CreatedTime     int64             `json:"createdTime,omitempty"`
	LastUpdatedTime int64             `json:"lastUpdatedTime,omitempty"`
}

func (Sequence) ResourceType() Type { return TypeSequence }
func (s Sequence) GetExternalID() string { return s.ExternalID }
