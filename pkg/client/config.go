package client

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Config contains connection and authentication settings for a project.
//
// Authenticate either with an API key or with OAuth client credentials. When
// TokenURL is empty and Issuer is set, the token endpoint is discovered from the
// issuer's OpenID configuration.
//
// Example configuration (HCL):
//
//	base_url      = "https://api.cognitedata.com"
//	project       = "publicdata"
//	client_id     = env("CDFX_CLIENT_ID")
//	client_secret = env("CDFX_CLIENT_SECRET")
//	token_url     = "https://login.example.com/oauth2/v2.0/token"
//	scopes        = ["https://api.cognitedata.com/.default"]
type Config struct {
	// BaseURL is the cluster URL, e.g. "https://api.cognitedata.com".
	BaseURL string `hcl:"base_url" json:"baseUrl"`

	// Project is the project name used in every request path.
	Project string `hcl:"project" json:"project"`

	// APIVersion selects the path prefix. Use "playground" for experimental
	// endpoints. Default: "v1".
	APIVersion string `hcl:"api_version,optional" json:"apiVersion,omitempty"`

	// APIKey authenticates with the legacy api-key header.
	APIKey string `hcl:"api_key,optional" json:"-"`

	// OAuth client credentials.
	ClientID     string   `hcl:"client_id,optional" json:"clientId,omitempty"`
	ClientSecret string   `hcl:"client_secret,optional" json:"-"`
	TokenURL     string   `hcl:"token_url,optional" json:"tokenUrl,omitempty"`
	Issuer       string   `hcl:"issuer,optional" json:"issuer,omitempty"`
	Scopes       []string `hcl:"scopes,optional" json:"scopes,omitempty"`

	// AppName is sent in the X-Cdp-App header.
	AppName string `hcl:"app_name,optional" json:"appName,omitempty"`

	// TLSVerify controls TLS certificate verification.
	TLSVerify *bool `hcl:"tls_verify,optional" json:"tlsVerify,omitempty"`

	// Trace wraps the HTTP client with Datadog tracing.
	Trace bool `hcl:"trace,optional" json:"trace,omitempty"`

	// Timeout for a single HTTP attempt. Default: 30 seconds.
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxRetries for retryable failures. Default: 3.
	MaxRetries int `hcl:"max_retries,optional" json:"maxRetries,omitempty"`

	// RetryDelay is the initial delay of the exponential retry policy.
	// Default: 500 milliseconds.
	RetryDelay time.Duration `json:"retryDelay,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		APIVersion: "v1",
		AppName:    "cdfx",
		TLSVerify:  &tlsVerify,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.APIVersion == "" {
		c.APIVersion = defaults.APIVersion
	}
	if c.AppName == "" {
		c.AppName = defaults.AppName
	}
	if c.TLSVerify == nil {
		c.TLSVerify = defaults.TLSVerify
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = defaults.RetryDelay
	}
}

// UsesOAuth reports whether the config authenticates with client credentials.
func (c *Config) UsesOAuth() bool {
	return c.ClientID != ""
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.BaseURL == "" {
		result = multierror.Append(result, fmt.Errorf("base_url is required"))
	} else if parsedURL, err := url.Parse(c.BaseURL); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid base_url: %w", err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		result = multierror.Append(result,
			fmt.Errorf("base_url must use http or https scheme, got: %s", parsedURL.Scheme))
	}

	if c.Project == "" {
		result = multierror.Append(result, fmt.Errorf("project is required"))
	}

	switch {
	case c.APIKey != "" && c.UsesOAuth():
		result = multierror.Append(result,
			fmt.Errorf("api_key and client_id are mutually exclusive"))
	case c.APIKey == "" && !c.UsesOAuth():
		result = multierror.Append(result,
			fmt.Errorf("either api_key or client_id is required"))
	case c.UsesOAuth():
		if c.ClientSecret == "" {
			result = multierror.Append(result, fmt.Errorf("client_secret is required with client_id"))
		}
		if c.TokenURL == "" && c.Issuer == "" {
			result = multierror.Append(result, fmt.Errorf("token_url or issuer is required with client_id"))
		}
	}

	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got: %v", c.Timeout))
	}

	if c.MaxRetries < 0 {
		result = multierror.Append(result,
			fmt.Errorf("max_retries must be non-negative, got: %d", c.MaxRetries))
	}

	if c.RetryDelay < 0 {
		result = multierror.Append(result,
			fmt.Errorf("retry_delay must be non-negative, got: %v", c.RetryDelay))
	}

	return result.ErrorOrNil()
}

// newTransport creates the base round tripper for this config.
func (c *Config) newTransport() *http.Transport {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return transport
}
