package versioncmd

import (
	"github.com/datacube-forge/stacdex/internal/cmd/base"
	"github.com/datacube-forge/stacdex/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: stacdex version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
