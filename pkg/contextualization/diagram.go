package contextualization

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/cdf-forge/cdfx/pkg/jobs"
)

// FileReference points at a file by internal or external id.
type FileReference struct {
	FileID         *int64  `json:"fileId,omitempty"`
	FileExternalID *string `json:"fileExternalId,omitempty"`
}

// Validate checks that exactly one file identifier is set.
func (f FileReference) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.FileID,
			validation.When(f.FileExternalID == nil, validation.Required.Error("file_id or file_external_id is required")),
			validation.When(f.FileExternalID != nil, validation.Nil.Error("file_id and file_external_id are mutually exclusive")),
		),
	)
}

// DetectRequest asks for entity annotations in engineering diagrams.
type DetectRequest struct {
	Items    []FileReference
	Entities []map[string]any

	// SearchField is the entity field matched against diagram text.
	// Server default: "name".
	SearchField  *string
	PartialMatch *bool
	MinTokens    *int
}

// Validate checks the files and entities.
func (r DetectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required),
		validation.Field(&r.Entities, validation.Required),
		validation.Field(&r.MinTokens, validation.Min(1)),
	)
}

func (r DetectRequest) payload() map[string]any {
	return map[string]any{
		"items":         r.Items,
		"entities":      r.Entities,
		"search_field":  r.SearchField,
		"partial_match": r.PartialMatch,
		"min_tokens":    r.MinTokens,
	}
}

// Annotation is one detected entity occurrence.
type Annotation struct {
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Entities   []map[string]any `json:"entities"`
	Region     map[string]any   `json:"region"`
}

// DiagramItem holds the annotations found in one file.
type DiagramItem struct {
	FileID         int64        `json:"fileId"`
	FileExternalID string       `json:"fileExternalId"`
	Annotations    []Annotation `json:"annotations"`
	ErrorMessage   string       `json:"errorMessage"`
}

// DiagramDetectResult is the result of a diagram detection job.
type DiagramDetectResult struct {
	Items []DiagramItem `json:"items"`
}

// Detect launches a diagram detection job.
func (s *Service) Detect(ctx context.Context, req DetectRequest) (*jobs.Job, error) {
	return s.launch(ctx, DiagramDetectJob, req)
}

// DetectResult waits for a diagram detection job and returns its typed result.
func (s *Service) DetectResult(ctx context.Context, job *jobs.Job) (*DiagramDetectResult, error) {
	return result[DiagramDetectResult](ctx, s.tracker, job)
}
