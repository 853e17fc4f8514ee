package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/cdf-forge/cdfx/pkg/casing"
)

// Status is the server-reported state of a job.
type Status string

// Job statuses. Completed and Failed are terminal.
const (
	StatusQueued    Status = "Queued"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// IsTerminal reports whether no further transitions can occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func parseStatus(s string) (Status, error) {
	switch status := Status(s); status {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed:
		return status, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// JobType describes where a kind of job is launched and polled.
type JobType struct {
	// Name identifies the job type in errors and metrics, e.g. "EntityMatchingJob".
	Name string

	// ResourcePath is the API the job belongs to, e.g. "/context/entitymatching".
	ResourcePath string

	// JobPath is appended to ResourcePath to launch the job, e.g. "predict".
	JobPath string

	// StatusPath is the prefix the job id is appended to when polling,
	// e.g. "/context/entitymatching/jobs/".
	StatusPath string

	// SnakeCaseResult converts result keys to snake_case.
	SnakeCaseResult bool
}

// Validate checks that all paths are set.
func (t JobType) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.ResourcePath, validation.Required),
		validation.Field(&t.JobPath, validation.Required),
		validation.Field(&t.StatusPath, validation.Required),
	)
}

func (t JobType) launchPath() string {
	return strings.TrimSuffix(t.ResourcePath, "/") + "/" + strings.TrimPrefix(t.JobPath, "/")
}

// Job is the client-side record of a server-side asynchronous computation.
//
// A Job holds no reference to a client; pass it to a Tracker to refresh it.
// Jobs are not safe for concurrent use.
type Job struct {
	// ID is assigned by the server when the job is launched.
	ID int64 `json:"jobId"`

	// Type is the JobType name the job was launched with.
	Type string `json:"type"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	// Server timestamps in epoch milliseconds, zero when not reported.
	CreatedTime int64 `json:"createdTime,omitempty"`
	StartTime   int64 `json:"startTime,omitempty"`
	StatusTime  int64 `json:"statusTime,omitempty"`

	statusPath      string
	snakeCaseResult bool
	result          map[string]any
}

// Existing returns a Job for an id launched elsewhere. Its status is empty
// until the first UpdateStatus.
func Existing(jobType JobType, id int64) *Job {
	return &Job{
		ID:              id,
		Type:            jobType.Name,
		statusPath:      jobType.StatusPath,
		snakeCaseResult: jobType.SnakeCaseResult,
	}
}

// StatusPath returns the path prefix used to poll the job.
func (j *Job) StatusPath() string {
	return j.statusPath
}

// CachedResult returns the result if the job has been observed as Completed.
func (j *Job) CachedResult() (map[string]any, bool) {
	return j.result, j.result != nil
}

func (j *Job) String() string {
	return fmt.Sprintf("%s(id=%d, status=%s)", j.Type, j.ID, j.Status)
}

// reservedFields are never part of the result payload.
var reservedFields = map[string]bool{
	"status":       true,
	"jobId":        true,
	"errorMessage": true,
}

// statusFields is the part of a job response the tracker interprets.
type statusFields struct {
	JobID        *int64 `json:"jobId"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	CreatedTime  int64  `json:"createdTime"`
	StartTime    int64  `json:"startTime"`
	StatusTime   int64  `json:"statusTime"`
}

func decodeStatusFields(raw map[string]json.RawMessage) (statusFields, Status, error) {
	var fields statusFields

	// Re-marshalling the raw map keeps jobId as an exact integer.
	body, err := json.Marshal(raw)
	if err != nil {
		return fields, "", err
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return fields, "", fmt.Errorf("failed to decode job response: %w", err)
	}

	if fields.Status == "" {
		return fields, "", fmt.Errorf("job response has no status")
	}
	status, err := parseStatus(fields.Status)
	if err != nil {
		return fields, "", err
	}

	return fields, status, nil
}

// decodeResult collects every non-reserved field of a job response.
func decodeResult(raw map[string]json.RawMessage, snakeCase bool) (map[string]any, error) {
	result := make(map[string]any, len(raw))
	for key, value := range raw {
		if reservedFields[key] {
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("failed to decode result field %s: %w", key, err)
		}
		result[key] = v
	}

	if snakeCase {
		return casing.SnakeKeys(result), nil
	}
	return result, nil
}
