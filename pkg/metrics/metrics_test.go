package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	reg := prometheus.NewRegistry()

	collector, err := NewCollector(reg)
	require.NoError(t, err)
	assert.NotNil(t, collector.requests)
	assert.NotNil(t, collector.requestDuration)
	assert.NotNil(t, collector.jobPolls)
	assert.NotNil(t, collector.resourceFetches)

	// Registering twice on the same registry fails.
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestRecordRequest(t *testing.T) {
	collector, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	collector.RecordRequest("GET", 200, 10*time.Millisecond)
	collector.RecordRequest("GET", 200, 20*time.Millisecond)
	collector.RecordRequest("POST", 0, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.requests.WithLabelValues("POST", "error")))
}

func TestRecordJobPollAndFetch(t *testing.T) {
	collector, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	collector.RecordJobPoll("EntityMatchingJob", "Running")
	collector.RecordJobPoll("EntityMatchingJob", "Completed")
	collector.RecordResourceFetch("asset", 3)
	collector.RecordResourceFetch("asset", 2)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.jobPolls.WithLabelValues("EntityMatchingJob", "Completed")))
	assert.Equal(t, float64(5), testutil.ToFloat64(collector.resourceFetches.WithLabelValues("asset")))
}

func TestNilCollector(t *testing.T) {
	var collector *Collector

	assert.NotPanics(t, func() {
		collector.RecordRequest("GET", 200, time.Second)
		collector.RecordJobPoll("job", "Queued")
		collector.RecordResourceFetch("event", 1)
	})
}
