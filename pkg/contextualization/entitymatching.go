package contextualization

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/cdf-forge/cdfx/pkg/jobs"
)

// PredictRequest asks a trained entity matching model to match sources to
// targets. Nil fields are left out so the server defaults apply.
type PredictRequest struct {
	// ID or ExternalID selects the model.
	ID         *int64
	ExternalID *string

	// Sources and Targets override the entities the model was trained with.
	Sources []map[string]any
	Targets []map[string]any

	NumMatches     *int
	ScoreThreshold *float64
}

// Validate checks that exactly one model identifier is set.
func (r PredictRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID,
			validation.When(r.ExternalID == nil, validation.Required.Error("id or external_id is required")),
			validation.When(r.ExternalID != nil, validation.Nil.Error("id and external_id are mutually exclusive")),
		),
		validation.Field(&r.NumMatches, validation.Min(1)),
		validation.Field(&r.ScoreThreshold, validation.Min(0.0), validation.Max(1.0)),
	)
}

func (r PredictRequest) payload() map[string]any {
	return map[string]any{
		"id":              r.ID,
		"external_id":     r.ExternalID,
		"sources":         r.Sources,
		"targets":         r.Targets,
		"num_matches":     r.NumMatches,
		"score_threshold": r.ScoreThreshold,
	}
}

// Match is one candidate target for a source.
type Match struct {
	Score  float64        `json:"score"`
	Target map[string]any `json:"target"`
}

// MatchItem holds the candidate matches of one source, best first.
type MatchItem struct {
	Source  map[string]any `json:"source"`
	Matches []Match        `json:"matches"`
}

// EntityMatchingResult is the result of an entity matching prediction.
type EntityMatchingResult struct {
	Items []MatchItem `json:"items"`
}

// Predict launches an entity matching prediction job.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (*jobs.Job, error) {
	return s.launch(ctx, EntityMatchingJob, req)
}

// PredictResult waits for a prediction job and returns its typed result.
func (s *Service) PredictResult(ctx context.Context, job *jobs.Job) (*EntityMatchingResult, error) {
	return result[EntityMatchingResult](ctx, s.tracker, job)
}
