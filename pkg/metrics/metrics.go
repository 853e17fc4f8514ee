// Package metrics exposes Prometheus instrumentation for SDK calls.
//
// A nil *Collector is valid and records nothing, so instrumented components
// can be used without a registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the SDK's Prometheus collectors.
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	jobPolls        *prometheus.CounterVec
	resourceFetches *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them on reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdfx_requests_total",
			Help: "Total number of API requests by method and response status",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cdfx_request_duration_seconds",
			Help:    "API request latency in seconds, including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		jobPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdfx_job_polls_total",
			Help: "Total number of job status polls by job type and observed status",
		}, []string{"job_type", "status"}),
		resourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdfx_resource_fetches_total",
			Help: "Total number of resources fetched while resolving relationships",
		}, []string{"resource_type"}),
	}

	for _, col := range []prometheus.Collector{
		c.requests, c.requestDuration, c.jobPolls, c.resourceFetches,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordRequest records one completed API call. A status of 0 means the call
// failed before a response was received.
func (c *Collector) RecordRequest(method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.requests.WithLabelValues(method, label).Inc()
	c.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RecordJobPoll records a status poll that observed status.
func (c *Collector) RecordJobPoll(jobType, status string) {
	if c == nil {
		return
	}
	c.jobPolls.WithLabelValues(jobType, status).Inc()
}

// RecordResourceFetch records count resources fetched for resourceType.
func (c *Collector) RecordResourceFetch(resourceType string, count int) {
	if c == nil {
		return
	}
	c.resourceFetches.WithLabelValues(resourceType).Add(float64(count))
}
