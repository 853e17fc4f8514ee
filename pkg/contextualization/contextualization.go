// Package contextualization launches the long-running contextualization
// jobs (entity matching, diagram detection and vision extraction) and
// decodes their results.
package contextualization

import (
	"context"
	"fmt"

	"github.com/cdf-forge/cdfx/pkg/jobs"
)

// Job types served by this package.
var (
	EntityMatchingJob = jobs.JobType{
		Name:         "EntityMatchingJob",
		ResourcePath: "/context/entitymatching",
		JobPath:      "predict",
		StatusPath:   "/context/entitymatching/jobs/",
	}

	DiagramDetectJob = jobs.JobType{
		Name:         "DiagramDetectJob",
		ResourcePath: "/context/diagram",
		JobPath:      "detect",
		StatusPath:   "/context/diagram/detect/",
	}

	VisionExtractJob = jobs.JobType{
		Name:         "VisionExtractJob",
		ResourcePath: "/context/vision",
		JobPath:      "extract",
		StatusPath:   "/context/vision/extract/",
	}
)

// JobTypes maps job type names to their descriptors.
var JobTypes = map[string]jobs.JobType{
	EntityMatchingJob.Name: EntityMatchingJob,
	DiagramDetectJob.Name:  DiagramDetectJob,
	VisionExtractJob.Name:  VisionExtractJob,
}

// Service launches contextualization jobs through a tracker.
type Service struct {
	tracker *jobs.Tracker
}

// New creates a Service.
func New(tracker *jobs.Tracker) *Service {
	return &Service{tracker: tracker}
}

// Tracker returns the tracker jobs are launched with.
func (s *Service) Tracker() *jobs.Tracker {
	return s.tracker
}

type payloader interface {
	Validate() error
	payload() map[string]any
}

func (s *Service) launch(ctx context.Context, jobType jobs.JobType, req payloader) (*jobs.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s request: %w", jobType.Name, err)
	}
	return s.tracker.Create(ctx, jobType, req.payload())
}

// result waits for job and decodes its result into a T.
func result[T any](ctx context.Context, tracker *jobs.Tracker, job *jobs.Job) (*T, error) {
	raw, err := tracker.Result(ctx, job)
	if err != nil {
		return nil, err
	}

	out := new(T)
	if err := jobs.DecodeResult(raw, out); err != nil {
		return nil, fmt.Errorf("%s %d: %w", job.Type, job.ID, err)
	}
	return out, nil
}
