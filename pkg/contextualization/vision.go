package contextualization

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/cdf-forge/cdfx/pkg/jobs"
)

// Feature is a vision extraction feature.
type Feature string

const (
	TextDetection             Feature = "TextDetection"
	AssetTagDetection         Feature = "AssetTagDetection"
	PeopleDetection           Feature = "PeopleDetection"
	IndustrialObjectDetection Feature = "IndustrialObjectDetection"
)

// ExtractRequest asks for features to be extracted from images.
type ExtractRequest struct {
	Items    []FileReference
	Features []Feature

	// Parameters holds per-feature settings, keyed by snake_case names.
	Parameters map[string]any
}

// Validate checks the files and features.
func (r ExtractRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required),
		validation.Field(&r.Features,
			validation.Required,
			validation.Each(validation.In(TextDetection, AssetTagDetection, PeopleDetection, IndustrialObjectDetection)),
		),
	)
}

func (r ExtractRequest) payload() map[string]any {
	return map[string]any{
		"items":      r.Items,
		"features":   r.Features,
		"parameters": r.Parameters,
	}
}

// VisionItem holds the predictions for one image.
type VisionItem struct {
	FileID         int64          `json:"fileId"`
	FileExternalID string         `json:"fileExternalId"`
	Predictions    map[string]any `json:"predictions"`
	ErrorMessage   string         `json:"errorMessage"`
}

// VisionExtractResult is the result of a vision extraction job.
type VisionExtractResult struct {
	Items []VisionItem `json:"items"`
}

// Extract launches a vision extraction job.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*jobs.Job, error) {
	return s.launch(ctx, VisionExtractJob, req)
}

// ExtractResult waits for a vision extraction job and returns its typed
// result.
func (s *Service) ExtractResult(ctx context.Context, job *jobs.Job) (*VisionExtractResult, error) {
	return result[VisionExtractResult](ctx, s.tracker, job)
}
