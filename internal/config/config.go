// Package config loads the cdfx CLI configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/cdf-forge/cdfx/pkg/client"
	"github.com/cdf-forge/cdfx/pkg/concurrency"
	"github.com/cdf-forge/cdfx/pkg/jobs"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "cdfx.hcl"

// Config is the CLI configuration.
//
// Example:
//
//	log_level     = "info"
//	poll_interval = "2s"
//	workers       = 8
//	metrics_file  = "/var/lib/node_exporter/cdfx.prom"
//
//	client {
//	  base_url      = "https://api.cognitedata.com"
//	  project       = "publicdata"
//	  client_id     = env("CDFX_CLIENT_ID")
//	  client_secret = env("CDFX_CLIENT_SECRET")
//	  issuer        = "https://login.example.com/tenant/v2.0"
//	}
type Config struct {
	// Client holds connection and authentication settings.
	Client *client.Config `hcl:"client,block"`

	// LogLevel is the hclog level name. Default: "warn".
	LogLevel string `hcl:"log_level,optional"`

	// PollInterval is the delay between job status polls. Default: "1s".
	PollInterval string `hcl:"poll_interval,optional"`

	// RequestTimeout bounds a single HTTP attempt. Default: "30s".
	RequestTimeout string `hcl:"request_timeout,optional"`

	// RetryDelay is the initial delay between request retries. Default: "500ms".
	RetryDelay string `hcl:"retry_delay,optional"`

	// Workers bounds concurrent resource fetches. Default: 5.
	Workers int `hcl:"workers,optional"`

	// MetricsFile, when set, receives the Prometheus metrics of the run in
	// the text exposition format, for node_exporter's textfile collector.
	MetricsFile string `hcl:"metrics_file,optional"`

	pollInterval   time.Duration
	requestTimeout time.Duration
	retryDelay     time.Duration
}

// envOverrides maps environment variables to the client field they set.
var envOverrides = map[string]func(*client.Config, string){
	"CDFX_BASE_URL":      func(c *client.Config, v string) { c.BaseURL = v },
	"CDFX_PROJECT":       func(c *client.Config, v string) { c.Project = v },
	"CDFX_API_KEY":       func(c *client.Config, v string) { c.APIKey = v },
	"CDFX_CLIENT_ID":     func(c *client.Config, v string) { c.ClientID = v },
	"CDFX_CLIENT_SECRET": func(c *client.Config, v string) { c.ClientSecret = v },
	"CDFX_TOKEN_URL":     func(c *client.Config, v string) { c.TokenURL = v },
	"CDFX_ISSUER":        func(c *client.Config, v string) { c.Issuer = v },
	"CDFX_SCOPES": func(c *client.Config, v string) {
		c.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	},
}

// Load reads the config file at path from fs and applies environment
// overrides. A missing file is only an error when required is set; otherwise
// the configuration comes from the environment alone.
func Load(fs afero.Fs, path string, required bool) (*Config, error) {
	cfg := &Config{}

	src, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		// hclsimple picks the syntax from the file extension.
		name := path
		if ext := filepath.Ext(path); ext != ".hcl" && ext != ".json" {
			name = path + ".hcl"
		}
		if err := hclsimple.Decode(name, src, evalContext(), cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !required:
	default:
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if cfg.Client == nil {
		cfg.Client = &client.Config{}
	}
	for name, set := range envOverrides {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			set(cfg.Client, v)
		}
	}
	if v, ok := os.LookupEnv("CDFX_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("CDFX_METRICS_FILE"); ok && v != "" {
		cfg.MetricsFile = v
	}
	if v, ok := os.LookupEnv("CDFX_WORKERS"); ok && v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CDFX_WORKERS: %w", err)
		}
		cfg.Workers = workers
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize applies defaults and parses durations, reporting every problem.
func (c *Config) normalize() error {
	var result *multierror.Error

	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("invalid log_level: %q", c.LogLevel))
	}

	if c.Workers == 0 {
		c.Workers = concurrency.DefaultMaxWorkers
	}
	if c.Workers < 0 {
		result = multierror.Append(result, fmt.Errorf("workers must be positive, got: %d", c.Workers))
	}

	durations := []struct {
		name  string
		value string
		def   time.Duration
		out   *time.Duration
	}{
		{"poll_interval", c.PollInterval, jobs.DefaultPollInterval, &c.pollInterval},
		{"request_timeout", c.RequestTimeout, 30 * time.Second, &c.requestTimeout},
		{"retry_delay", c.RetryDelay, 500 * time.Millisecond, &c.retryDelay},
	}
	for _, d := range durations {
		if d.value == "" {
			*d.out = d.def
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid %s: %w", d.name, err))
			continue
		}
		if parsed <= 0 {
			result = multierror.Append(result, fmt.Errorf("%s must be positive, got: %v", d.name, parsed))
			continue
		}
		*d.out = parsed
	}

	return result.ErrorOrNil()
}

// PollIntervalDuration returns the parsed poll interval.
func (c *Config) PollIntervalDuration() time.Duration {
	return c.pollInterval
}

// ClientConfig returns the client configuration with the top-level
// durations applied.
func (c *Config) ClientConfig() *client.Config {
	cc := *c.Client
	cc.Timeout = c.requestTimeout
	cc.RetryDelay = c.retryDelay
	return &cc
}

// Level returns the configured log level.
func (c *Config) Level() hclog.Level {
	return hclog.LevelFromString(c.LogLevel)
}

// evalContext exposes env("NAME") to config files.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": function.New(&function.Spec{
				Params: []function.Parameter{{Name: "name", Type: cty.String}},
				Type:   function.StaticReturnType(cty.String),
				Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
					return cty.StringVal(os.Getenv(args[0].AsString())), nil
				},
			}),
		},
	}
}
