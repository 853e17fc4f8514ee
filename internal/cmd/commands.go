package cmd

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
	"github.com/cdf-forge/cdfx/internal/cmd/commands/auth"
	"github.com/cdf-forge/cdfx/internal/cmd/commands/jobs"
	"github.com/cdf-forge/cdfx/internal/cmd/commands/relationships"
	"github.com/cdf-forge/cdfx/internal/cmd/commands/version"
)

// Commands is the mapping of all available cdfx commands.
var Commands map[string]cli.CommandFactory

func initCommands(ctx context.Context, log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)
	b.Context = ctx

	Commands = map[string]cli.CommandFactory{
		"auth": func() (cli.Command, error) {
			return &auth.Command{Command: b}, nil
		},
		"auth inspect": func() (cli.Command, error) {
			return &auth.InspectCommand{Command: b}, nil
		},
		"jobs": func() (cli.Command, error) {
			return &jobs.Command{Command: b}, nil
		},
		"jobs result": func() (cli.Command, error) {
			return &jobs.ResultCommand{Command: b}, nil
		},
		"jobs status": func() (cli.Command, error) {
			return &jobs.StatusCommand{Command: b}, nil
		},
		"jobs wait": func() (cli.Command, error) {
			return &jobs.WaitCommand{Command: b}, nil
		},
		"relationships": func() (cli.Command, error) {
			return &relationships.Command{Command: b}, nil
		},
		"relationships query": func() (cli.Command, error) {
			return &relationships.QueryCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
