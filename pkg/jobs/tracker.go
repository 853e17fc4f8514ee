package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"

	"github.com/cdf-forge/cdfx/pkg/casing"
	"github.com/cdf-forge/cdfx/pkg/client"
	"github.com/cdf-forge/cdfx/pkg/metrics"
)

// DefaultPollInterval is the delay between status polls.
const DefaultPollInterval = time.Second

// Transport performs JSON requests against the project API. *client.Client
// implements it.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// PollInterval is the fixed delay between status polls.
	// Default: DefaultPollInterval.
	PollInterval time.Duration

	Logger  hclog.Logger
	Metrics *metrics.Collector
}

// Tracker launches jobs and follows them to a terminal status.
type Tracker struct {
	transport    Transport
	pollInterval time.Duration
	logger       hclog.Logger
	metrics      *metrics.Collector
}

// NewTracker creates a Tracker that sends requests through transport.
func NewTracker(transport Transport, cfg TrackerConfig) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Tracker{
		transport:    transport,
		pollInterval: pollInterval,
		logger:       logger.Named("jobs"),
		metrics:      cfg.Metrics,
	}
}

// Create launches a job of the given type. Payload keys are converted to
// lowerCamelCase at any depth and nil values are left out of the request.
func (t *Tracker) Create(ctx context.Context, jobType JobType, payload map[string]any) (*Job, error) {
	if err := jobType.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job type: %w", err)
	}

	body := casing.CamelKeys(payload)
	if body == nil {
		body = map[string]any{}
	}

	var raw map[string]json.RawMessage
	if err := t.transport.Post(ctx, jobType.launchPath(), body, &raw); err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", jobType.Name, err)
	}

	fields, status, err := decodeStatusFields(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s launch response: %w", jobType.Name, err)
	}
	if fields.JobID == nil {
		return nil, fmt.Errorf("invalid %s launch response: missing jobId", jobType.Name)
	}

	job := Existing(jobType, *fields.JobID)
	if err := t.apply(job, raw, fields, status); err != nil {
		return nil, err
	}

	t.logger.Debug("launched job",
		"job_type", job.Type,
		"job_id", job.ID,
		"status", job.Status,
	)

	return job, nil
}

// UpdateStatus fetches the current status of job and records it. Once job is
// Completed its result is cached. A job in a terminal status keeps it even
// if the server later reports something else.
func (t *Tracker) UpdateStatus(ctx context.Context, job *Job) (Status, error) {
	path := job.statusPath + strconv.FormatInt(job.ID, 10)

	var raw map[string]json.RawMessage
	if err := t.transport.Get(ctx, path, nil, &raw); err != nil {
		if client.IsNotFound(err) {
			return job.Status, fmt.Errorf("%w: %s %d: %w", ErrJobNotFound, job.Type, job.ID, err)
		}
		return job.Status, fmt.Errorf("failed to get status of %s %d: %w", job.Type, job.ID, err)
	}

	fields, status, err := decodeStatusFields(raw)
	if err != nil {
		return job.Status, fmt.Errorf("invalid status response for %s %d: %w", job.Type, job.ID, err)
	}
	t.metrics.RecordJobPoll(job.Type, string(status))

	if job.Status.IsTerminal() && status != job.Status {
		t.logger.Warn("ignoring status change of finished job",
			"job_type", job.Type,
			"job_id", job.ID,
			"status", job.Status,
			"reported", status,
		)
		return job.Status, nil
	}

	if err := t.apply(job, raw, fields, status); err != nil {
		return job.Status, err
	}

	return job.Status, nil
}

// apply copies a decoded response into job. job is left untouched when the
// result of a Completed response cannot be decoded.
func (t *Tracker) apply(job *Job, raw map[string]json.RawMessage, fields statusFields, status Status) error {
	var result map[string]any
	if status == StatusCompleted && job.result == nil {
		var err error
		result, err = decodeResult(raw, job.snakeCaseResult)
		if err != nil {
			return fmt.Errorf("invalid result of %s %d: %w", job.Type, job.ID, err)
		}
	}

	job.Status = status
	job.ErrorMessage = ""
	if status == StatusFailed {
		job.ErrorMessage = fields.ErrorMessage
	}
	if fields.CreatedTime != 0 {
		job.CreatedTime = fields.CreatedTime
	}
	if fields.StartTime != 0 {
		job.StartTime = fields.StartTime
	}
	if fields.StatusTime != 0 {
		job.StatusTime = fields.StatusTime
	}

	if result != nil {
		job.result = result
	}

	return nil
}

// errStillRunning makes the poll loop try again.
var errStillRunning = errors.New("job is still running")

// WaitForCompletion polls job at a fixed interval until it reaches a
// terminal status or ctx is done. A job marked Completed without a cached
// result is polled once to fetch it. A Failed job is reported as
// *ModelFailedError.
func (t *Tracker) WaitForCompletion(ctx context.Context, job *Job) error {
	_, cached := job.CachedResult()
	if !job.Status.IsTerminal() || (job.Status == StatusCompleted && !cached) {
		poll := func() error {
			status, err := t.UpdateStatus(ctx, job)
			if err != nil {
				return backoff.Permanent(err)
			}
			if !status.IsTerminal() {
				return errStillRunning
			}
			return nil
		}

		notify := func(_ error, wait time.Duration) {
			t.logger.Trace("waiting for job",
				"job_type", job.Type,
				"job_id", job.ID,
				"status", job.Status,
				"wait", wait,
			)
		}

		policy := backoff.WithContext(backoff.NewConstantBackOff(t.pollInterval), ctx)
		if err := backoff.RetryNotify(poll, policy, notify); err != nil {
			// The policy returns ctx.Err() as-is when ctx is done between polls.
			if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr {
				return fmt.Errorf("stopped waiting for %s %d: %w", job.Type, job.ID, err)
			}
			return err
		}
	}

	if job.Status == StatusFailed {
		return &ModelFailedError{
			JobType: job.Type,
			JobID:   job.ID,
			Message: job.ErrorMessage,
		}
	}

	return nil
}

// Result returns the result of job, waiting for it to complete if it has not
// been seen as Completed yet. Once cached, no further requests are made.
func (t *Tracker) Result(ctx context.Context, job *Job) (map[string]any, error) {
	if result, ok := job.CachedResult(); ok {
		return result, nil
	}

	if err := t.WaitForCompletion(ctx, job); err != nil {
		return nil, err
	}

	result, ok := job.CachedResult()
	if !ok {
		return nil, fmt.Errorf("no result received for %s %d", job.Type, job.ID)
	}
	return result, nil
}

// DecodeResult decodes a job result into out, a pointer to a struct whose
// fields carry json tags.
func DecodeResult(result map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(result); err != nil {
		return fmt.Errorf("failed to decode job result: %w", err)
	}
	return nil
}
