package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdf-forge/cdfx/pkg/client"
	"github.com/cdf-forge/cdfx/pkg/metrics"
)

var testJobType = JobType{
	Name:         "EntityMatchingJob",
	ResourcePath: "/context/entitymatching",
	JobPath:      "predict",
	StatusPath:   "/context/entitymatching/jobs/",
}

const projectPrefix = "/api/v1/projects/test-project"

func newTestTracker(t *testing.T, serverURL string, opts ...func(*TrackerConfig)) *Tracker {
	t.Helper()

	c, err := client.New(context.Background(), &client.Config{
		BaseURL:    serverURL,
		Project:    "test-project",
		APIKey:     "test-key",
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	cfg := TrackerConfig{PollInterval: time.Millisecond}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewTracker(c, cfg)
}

// statusSequence serves the given status bodies in order, repeating the last.
func statusSequence(t *testing.T, polls *atomic.Int32, bodies ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(polls.Add(1)) - 1
		if n >= len(bodies) {
			n = len(bodies) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[n]))
	}
}

func TestCreate(t *testing.T) {
	t.Run("OmitsNilValuesAndCamelCasesKeys", func(t *testing.T) {
		var gotBody map[string]any
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, projectPrefix+"/context/entitymatching/predict", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"jobId": 123, "status": "Queued"}`))
		}))
		defer ts.Close()

		tracker := newTestTracker(t, ts.URL)
		job, err := tracker.Create(context.Background(), testJobType, map[string]any{
			"id":           7,
			"name_mapping": nil,
			"num_matches":  3,
		})
		require.NoError(t, err)

		assert.Equal(t, map[string]any{"id": float64(7), "numMatches": float64(3)}, gotBody)
		assert.Equal(t, int64(123), job.ID)
		assert.Equal(t, StatusQueued, job.Status)
		assert.Equal(t, "EntityMatchingJob", job.Type)
		assert.Equal(t, "/context/entitymatching/jobs/", job.StatusPath())
		_, cached := job.CachedResult()
		assert.False(t, cached)
	})

	t.Run("MissingJobID", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "Queued"}`))
		}))
		defer ts.Close()

		_, err := newTestTracker(t, ts.URL).Create(context.Background(), testJobType, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing jobId")
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jobId": 1, "status": "Paused"}`))
		}))
		defer ts.Close()

		_, err := newTestTracker(t, ts.URL).Create(context.Background(), testJobType, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown job status "Paused"`)
	})

	t.Run("InvalidJobType", func(t *testing.T) {
		tracker := NewTracker(nil, TrackerConfig{})
		_, err := tracker.Create(context.Background(), JobType{Name: "Broken"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid job type")
	})

	t.Run("LaunchError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "bad model"}}`))
		}))
		defer ts.Close()

		_, err := newTestTracker(t, ts.URL).Create(context.Background(), testJobType, nil)
		require.Error(t, err)

		var apiErr *client.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "bad model", apiErr.Message)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, projectPrefix+"/context/entitymatching/jobs/99", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"code": 404, "message": "no such job"}}`))
		}))
		defer ts.Close()

		job := Existing(testJobType, 99)
		_, err := newTestTracker(t, ts.URL).UpdateStatus(context.Background(), job)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrJobNotFound)
		assert.True(t, client.IsNotFound(err))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("CachesResultOnCompletion", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{
				"jobId": 5,
				"status": "Completed",
				"statusTime": 1700000000000,
				"items": [{"source": {"id": 1}, "matches": []}]
			}`))
		}))
		defer ts.Close()

		job := Existing(testJobType, 5)
		status, err := newTestTracker(t, ts.URL).UpdateStatus(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, status)
		assert.Equal(t, int64(1700000000000), job.StatusTime)

		result, ok := job.CachedResult()
		require.True(t, ok)
		assert.Contains(t, result, "items")
		assert.Contains(t, result, "statusTime")
		assert.NotContains(t, result, "status")
		assert.NotContains(t, result, "jobId")
		assert.NotContains(t, result, "errorMessage")
	})

	t.Run("EmptyResultIsCached", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jobId": 5, "status": "Completed"}`))
		}))
		defer ts.Close()

		job := Existing(testJobType, 5)
		_, err := newTestTracker(t, ts.URL).UpdateStatus(context.Background(), job)
		require.NoError(t, err)

		result, ok := job.CachedResult()
		assert.True(t, ok)
		assert.Empty(t, result)
	})

	t.Run("SnakeCaseResult", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jobId": 5, "status": "Completed", "matchFields": [{"sourceName": "a"}]}`))
		}))
		defer ts.Close()

		jobType := testJobType
		jobType.SnakeCaseResult = true
		job := Existing(jobType, 5)
		_, err := newTestTracker(t, ts.URL).UpdateStatus(context.Background(), job)
		require.NoError(t, err)

		result, _ := job.CachedResult()
		assert.Equal(t, []any{map[string]any{"source_name": "a"}}, result["match_fields"])
	})

	t.Run("TerminalStatusNeverRegresses", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(statusSequence(t, &polls,
			`{"jobId": 5, "status": "Completed", "items": [1]}`,
			`{"jobId": 5, "status": "Running"}`,
		))
		defer ts.Close()

		tracker := newTestTracker(t, ts.URL)
		job := Existing(testJobType, 5)

		_, err := tracker.UpdateStatus(context.Background(), job)
		require.NoError(t, err)
		status, err := tracker.UpdateStatus(context.Background(), job)
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, status)
		assert.Equal(t, StatusCompleted, job.Status)
		result, ok := job.CachedResult()
		require.True(t, ok)
		assert.Equal(t, []any{float64(1)}, result["items"])
	})

	t.Run("RecordsPollMetrics", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jobId": 5, "status": "Running"}`))
		}))
		defer ts.Close()

		reg := prometheus.NewRegistry()
		collector, err := metrics.NewCollector(reg)
		require.NoError(t, err)

		tracker := newTestTracker(t, ts.URL, func(cfg *TrackerConfig) {
			cfg.Metrics = collector
		})
		_, err = tracker.UpdateStatus(context.Background(), Existing(testJobType, 5))
		require.NoError(t, err)

		count, err := testutil.GatherAndCount(reg, "cdfx_job_polls_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestWaitForCompletion(t *testing.T) {
	t.Run("PollsUntilCompleted", func(t *testing.T) {
		var launches, polls atomic.Int32
		status := statusSequence(t, &polls,
			`{"jobId": 42, "status": "Queued"}`,
			`{"jobId": 42, "status": "Running"}`,
			`{"jobId": 42, "status": "Completed", "items": []}`,
		)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				launches.Add(1)
				_, _ = w.Write([]byte(`{"jobId": 42, "status": "Queued"}`))
				return
			}
			status(w, r)
		}))
		defer ts.Close()

		tracker := newTestTracker(t, ts.URL)
		job, err := tracker.Create(context.Background(), testJobType, map[string]any{"id": 1})
		require.NoError(t, err)

		require.NoError(t, tracker.WaitForCompletion(context.Background(), job))
		assert.Equal(t, StatusCompleted, job.Status)
		assert.Equal(t, int32(3), polls.Load())
		assert.Equal(t, int32(1), launches.Load())
	})

	t.Run("FailedJob", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(statusSequence(t, &polls,
			`{"jobId": 42, "status": "Running"}`,
			`{"jobId": 42, "status": "Failed", "errorMessage": "boom"}`,
		))
		defer ts.Close()

		job := Existing(testJobType, 42)
		err := newTestTracker(t, ts.URL).WaitForCompletion(context.Background(), job)
		require.Error(t, err)

		var failed *ModelFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, int64(42), failed.JobID)
		assert.Equal(t, "boom", failed.Message)
		assert.ErrorIs(t, err, ErrJobFailed)
		assert.Contains(t, err.Error(), "42")
		assert.Contains(t, err.Error(), "boom")
		assert.Equal(t, "boom", job.ErrorMessage)

		var apiErr *client.APIError
		assert.False(t, errors.As(err, &apiErr))
	})

	t.Run("AlreadyFailedMakesNoRequests", func(t *testing.T) {
		var calls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer ts.Close()

		job := Existing(testJobType, 1)
		job.Status = StatusFailed
		job.ErrorMessage = "boom"

		err := newTestTracker(t, ts.URL).WaitForCompletion(context.Background(), job)
		assert.ErrorIs(t, err, ErrJobFailed)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("CompletedWithoutResultPollsOnce", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(statusSequence(t, &polls,
			`{"jobId": 7, "status": "Completed", "items": [1]}`,
		))
		defer ts.Close()

		job := Existing(testJobType, 7)
		job.Status = StatusCompleted

		require.NoError(t, newTestTracker(t, ts.URL).WaitForCompletion(context.Background(), job))
		assert.Equal(t, int32(1), polls.Load())
		result, cached := job.CachedResult()
		require.True(t, cached)
		assert.Equal(t, []any{float64(1)}, result["items"])
	})

	t.Run("ContextDeadline", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(statusSequence(t, &polls, `{"jobId": 1, "status": "Running"}`))
		defer ts.Close()

		tracker := newTestTracker(t, ts.URL, func(cfg *TrackerConfig) {
			cfg.PollInterval = 5 * time.Millisecond
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := tracker.WaitForCompletion(ctx, Existing(testJobType, 1))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Greater(t, polls.Load(), int32(1))
	})

	t.Run("StatusErrorStopsPolling", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			polls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer ts.Close()

		err := newTestTracker(t, ts.URL).WaitForCompletion(context.Background(), Existing(testJobType, 3))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrJobNotFound)
		assert.Equal(t, int32(1), polls.Load())
	})
}

func TestResult(t *testing.T) {
	t.Run("CompletedWithoutResultAndRegressedServerIsAnError", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(statusSequence(t, &polls, `{"jobId": 7, "status": "Running"}`))
		defer ts.Close()

		job := Existing(testJobType, 7)
		job.Status = StatusCompleted

		result, err := newTestTracker(t, ts.URL).Result(context.Background(), job)
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "no result received")
		assert.Equal(t, int32(1), polls.Load())
	})

	t.Run("CompletedWithoutResultFetchesIt", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(statusSequence(t, &polls,
			`{"jobId": 7, "status": "Completed", "items": [{"score": 0.5}]}`,
		))
		defer ts.Close()

		tracker := newTestTracker(t, ts.URL)
		job := Existing(testJobType, 7)
		job.Status = StatusCompleted

		result, err := tracker.Result(context.Background(), job)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, []any{map[string]any{"score": 0.5}}, result["items"])
		assert.Equal(t, int32(1), polls.Load())

		_, err = tracker.Result(context.Background(), job)
		require.NoError(t, err)
		assert.Equal(t, int32(1), polls.Load())
	})

	t.Run("Idempotent", func(t *testing.T) {
		var polls atomic.Int32
		ts := httptest.NewServer(statusSequence(t, &polls,
			`{"jobId": 8, "status": "Running"}`,
			`{"jobId": 8, "status": "Completed", "items": [{"score": 0.9}]}`,
		))
		defer ts.Close()

		tracker := newTestTracker(t, ts.URL)
		job := Existing(testJobType, 8)

		first, err := tracker.Result(context.Background(), job)
		require.NoError(t, err)
		pollsAfterFirst := polls.Load()

		second, err := tracker.Result(context.Background(), job)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, pollsAfterFirst, polls.Load())
		assert.Equal(t, int32(2), pollsAfterFirst)
	})

	t.Run("FailedJob", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"jobId": 8, "status": "Failed", "errorMessage": "model missing"}`))
		}))
		defer ts.Close()

		result, err := newTestTracker(t, ts.URL).Result(context.Background(), Existing(testJobType, 8))
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrJobFailed)
		assert.True(t, strings.Contains(err.Error(), "model missing"))
	})
}

func TestDecodeResult(t *testing.T) {
	type match struct {
		Score  float64        `json:"score"`
		Target map[string]any `json:"target"`
	}
	type item struct {
		Source  map[string]any `json:"source"`
		Matches []match        `json:"matches"`
	}
	var out struct {
		Items []item `json:"items"`
	}

	err := DecodeResult(map[string]any{
		"items": []any{
			map[string]any{
				"source":  map[string]any{"name": "pump"},
				"matches": []any{map[string]any{"score": 0.75, "target": map[string]any{"id": float64(9)}}},
			},
		},
	}, &out)
	require.NoError(t, err)

	require.Len(t, out.Items, 1)
	assert.Equal(t, "pump", out.Items[0].Source["name"])
	require.Len(t, out.Items[0].Matches, 1)
	assert.InDelta(t, 0.75, out.Items[0].Matches[0].Score, 1e-9)
}

func TestJobTypeValidate(t *testing.T) {
	assert.NoError(t, testJobType.Validate())

	err := JobType{Name: "x"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ResourcePath")
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestApply_UndecodableResultLeavesJobUnchanged(t *testing.T) {
	tracker := NewTracker(nil, TrackerConfig{})
	job := Existing(testJobType, 5)
	job.Status = StatusRunning

	raw := map[string]json.RawMessage{
		"jobId":  json.RawMessage(`5`),
		"status": json.RawMessage(`"Completed"`),
		"items":  json.RawMessage(`{`),
	}
	fields, status, err := decodeStatusFields(map[string]json.RawMessage{
		"jobId":  raw["jobId"],
		"status": raw["status"],
	})
	require.NoError(t, err)

	err = tracker.apply(job, raw, fields, status)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid result")
	assert.Equal(t, StatusRunning, job.Status)
	_, cached := job.CachedResult()
	assert.False(t, cached)
}
