// Package base holds what every cdfx command shares: the UI, the logger,
// connection flags and output formatting.
package base

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/cdf-forge/cdfx/internal/config"
	"github.com/cdf-forge/cdfx/pkg/client"
	"github.com/cdf-forge/cdfx/pkg/contextualization"
	"github.com/cdf-forge/cdfx/pkg/jobs"
	"github.com/cdf-forge/cdfx/pkg/metrics"
	"github.com/cdf-forge/cdfx/pkg/relationships"
	"github.com/cdf-forge/cdfx/pkg/resources"
)

// Command is embedded by every command.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger

	// Fs is where config files are read from.
	Fs afero.Fs

	// Context is passed to API calls. Default: context.Background().
	Context context.Context

	flagConfig string
	flagFormat string
}

// NewCommand returns a Command that reads config files from the OS
// filesystem.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		UI:      ui,
		Log:     log,
		Fs:      afero.NewOsFs(),
		Context: context.Background(),
	}
}

// ConnectionFlags adds the flags used by commands that call the API.
func (c *Command) ConnectionFlags(f *FlagSet) {
	f.StringVar(
		&c.flagConfig, "config", config.DefaultPath,
		"Path to the cdfx config file. Optional when the CDFX_* environment "+
			"variables provide the connection settings.",
	)
	c.OutputFlags(f)
}

// OutputFlags adds the -format flag.
func (c *Command) OutputFlags(f *FlagSet) {
	f.StringVar(
		&c.flagFormat, "format", FormatJSON,
		"Output format: json or yaml.",
	)
}

// Env is everything a command needs to talk to the API.
type Env struct {
	Config            *config.Config
	Client            *client.Client
	Tracker           *jobs.Tracker
	Resources         *resources.Client
	Resolver          *relationships.Resolver
	Contextualization *contextualization.Service

	// Metrics is nil unless metrics_file is configured.
	Metrics *metrics.Collector

	registry    *prometheus.Registry
	metricsFile string
}

// Setup loads the configuration and builds the API clients. The config file
// is only required when -config was set to something other than the default.
func (c *Command) Setup() (*Env, error) {
	if err := ValidateFormat(c.flagFormat); err != nil {
		return nil, err
	}

	path := c.flagConfig
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(c.Fs, path, path != config.DefaultPath)
	if err != nil {
		return nil, err
	}

	c.Log.SetLevel(cfg.Level())

	env := &Env{Config: cfg}
	if cfg.MetricsFile != "" {
		env.registry = prometheus.NewRegistry()
		env.metricsFile = cfg.MetricsFile
		env.Metrics, err = metrics.NewCollector(env.registry)
		if err != nil {
			return nil, fmt.Errorf("error registering metrics: %w", err)
		}
	}

	apiClient, err := client.New(c.Ctx(), cfg.ClientConfig(),
		client.WithLogger(c.Log),
		client.WithMetrics(env.Metrics),
	)
	if err != nil {
		return nil, err
	}

	tracker := jobs.NewTracker(apiClient, jobs.TrackerConfig{
		PollInterval: cfg.PollIntervalDuration(),
		Logger:       c.Log,
		Metrics:      env.Metrics,
	})
	res := resources.NewClient(apiClient, resources.Config{
		Workers: cfg.Workers,
		Logger:  c.Log,
		Metrics: env.Metrics,
	})
	resolver := relationships.NewResolver(
		relationships.NewAPI(apiClient, c.Log),
		relationships.FetchersFor(res),
		relationships.ResolverConfig{Workers: cfg.Workers, Logger: c.Log},
	)

	env.Client = apiClient
	env.Tracker = tracker
	env.Resources = res
	env.Resolver = resolver
	env.Contextualization = contextualization.New(tracker)

	return env, nil
}

// Finish writes the metrics of the run when metrics_file is configured.
// Failures are logged and do not change the command's exit code.
func (c *Command) Finish(env *Env) {
	if env == nil || env.registry == nil {
		return
	}
	if err := prometheus.WriteToTextfile(env.metricsFile, env.registry); err != nil {
		c.Log.Warn("failed to write metrics file",
			"path", env.metricsFile,
			"error", err,
		)
	}
}

// Ctx returns the context for API calls.
func (c *Command) Ctx() context.Context {
	if c.Context == nil {
		return context.Background()
	}
	return c.Context
}

// Output writes v to the UI in the selected format.
func (c *Command) Output(v any) error {
	out, err := Format(c.flagFormat, v)
	if err != nil {
		return err
	}
	c.UI.Output(out)
	return nil
}

// Errorf reports an error to the user and returns the exit code 1.
func (c *Command) Errorf(format string, args ...any) int {
	c.UI.Error(fmt.Sprintf(format, args...))
	return 1
}
