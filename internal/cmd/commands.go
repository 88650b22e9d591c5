package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/datacube-forge/stacdex/internal/cmd/base"
	"github.com/datacube-forge/stacdex/internal/cmd/commands/indexcmd"
	"github.com/datacube-forge/stacdex/internal/cmd/commands/versioncmd"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	Commands = map[string]cli.CommandFactory{
		"index": func() (cli.Command, error) {
			return &indexcmd.Command{
				Command: base.NewCommand(ui, log),
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncmd.Command{
				Command: base.NewCommand(ui, log),
			}, nil
		},
	}
}
