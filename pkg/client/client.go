package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"

	"github.com/cdf-forge/cdfx/internal/version"
	"github.com/cdf-forge/cdfx/pkg/metrics"
)

// Client sends JSON requests to the project API and decodes JSON responses.
//
// Retries on connection errors and on 429/502/503/504 are handled here;
// callers never retry on their own.
type Client struct {
	config      *Config
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	logger      hclog.Logger
	metrics     *metrics.Collector
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client. Authentication is still layered on
// top of its transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// New creates a client for cfg. For OAuth configs without a TokenURL the
// token endpoint is discovered using ctx.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrNotConfigured
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	c := &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.newTransport(),
		},
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("cdfx-client")

	if cfg.UsesOAuth() {
		ts, err := newTokenSource(ctx, cfg, c.httpClient)
		if err != nil {
			return nil, err
		}
		c.tokenSource = ts

		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient = &http.Client{
			Timeout: c.httpClient.Timeout,
			Transport: &oauth2.Transport{
				Source: ts,
				Base:   base,
			},
		}
	}

	if cfg.Trace {
		c.httpClient = httptrace.WrapClient(c.httpClient,
			httptrace.RTWithServiceName("cdfx"),
			httptrace.RTWithResourceNamer(func(req *http.Request) string {
				return req.Method + " " + req.URL.Path
			}),
		)
	}

	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() *Config {
	return c.config
}

// Get issues a GET request for path with optional query parameters and
// decodes the response body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with body encoded as JSON and decodes the
// response body into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, nil, body, out)
}

// Delete issues a DELETE request for path.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) error {
	return c.doRequest(ctx, http.MethodDelete, path, query, nil, nil)
}

// buildURL returns the absolute URL for a project-relative path.
func (c *Client) buildURL(path string, query url.Values) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(c.config.BaseURL, "/"))
	b.WriteString("/api/")
	b.WriteString(c.config.APIVersion)
	b.WriteString("/projects/")
	b.WriteString(url.PathEscape(c.config.Project))
	if !strings.HasPrefix(path, "/") {
		b.WriteByte('/')
	}
	b.WriteString(path)

	if len(query) > 0 {
		b.WriteByte('?')
		b.WriteString(query.Encode())
	}

	return b.String()
}

// newBackOff returns the retry policy for one request.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.config.RetryDelay
	eb.MaxInterval = 30 * time.Second
	eb.MaxElapsedTime = 0

	return backoff.WithContext(
		backoff.WithMaxRetries(eb, uint64(c.config.MaxRetries)),
		ctx,
	)
}

// doRequest executes an HTTP request with retry logic and error handling.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.buildURL(path, query)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	requestID := uuid.NewString()
	start := time.Now()
	lastStatus := 0

	operation := func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		c.setHeaders(req, requestID, payload != nil)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastStatus = 0
			if ctxErr := ctx.Err(); ctxErr != nil {
				return backoff.Permanent(ctxErr)
			}
			// Authentication failures surface as transport errors from
			// oauth2.Transport and are not retried.
			var retrieveErr *oauth2.RetrieveError
			if errors.As(err, &retrieveErr) {
				return backoff.Permanent(fmt.Errorf("failed to authenticate: %w", err))
			}
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		lastStatus = resp.StatusCode

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := newAPIError(resp.StatusCode, respBody, requestID)
			if isRetryableStatus(resp.StatusCode) {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
			}
		}

		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying request",
			"method", method,
			"path", path,
			"request_id", requestID,
			"wait", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(operation, c.newBackOff(ctx), notify)
	c.metrics.RecordRequest(method, lastStatus, time.Since(start))

	c.logger.Debug("request finished",
		"method", method,
		"path", path,
		"status", lastStatus,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	return err
}

func (c *Client) setHeaders(req *http.Request, requestID string, hasBody bool) {
	if c.config.APIKey != "" {
		req.Header.Set("api-key", c.config.APIKey)
	}
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("X-Cdp-App", c.config.AppName)
	req.Header.Set("X-Cdp-Sdk", "cdfx-go:"+version.Version)
}
