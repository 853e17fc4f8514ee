package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when the status endpoint reports 404 for a job.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobFailed matches every *ModelFailedError.
	ErrJobFailed = errors.New("job failed")
)

// ModelFailedError reports a job that reached the Failed status. It is
// distinct from transport errors, which are returned as *client.APIError.
type ModelFailedError struct {
	JobType string
	JobID   int64
	Message string
}

func (e *ModelFailedError) Error() string {
	return fmt.Sprintf("%s %d failed with error %q", e.JobType, e.JobID, e.Message)
}

// Is lets errors.Is(err, ErrJobFailed) match.
func (e *ModelFailedError) Is(target error) bool {
	return target == ErrJobFailed
}
