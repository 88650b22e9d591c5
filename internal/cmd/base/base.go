// Package base carries the pieces shared by every CLI command: the UI,
// the logger, and a flag set that renders its own help text.
package base

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every subcommand.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger
}

// NewCommand creates the shared command base.
func NewCommand(ui cli.Ui, log hclog.Logger) *Command {
	return &Command{UI: ui, Log: log}
}

// FlagSet wraps flag.FlagSet with help rendering. Flag usage strings
// may lead with an "[ENV_VAR]" marker documenting the environment
// fallback the command applies.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps a standard flag set.
func NewFlagSet(fs *flag.FlagSet) *FlagSet {
	fs.Usage = func() {}
	return &FlagSet{FlagSet: fs}
}

// Help renders the flag list as an indented block for command help
// output, sorted by flag name.
func (f *FlagSet) Help() string {
	var lines []string
	f.VisitAll(func(fl *flag.Flag) {
		def := ""
		if fl.DefValue != "" && fl.DefValue != "false" {
			def = fmt.Sprintf(" (default: %s)", fl.DefValue)
		}
		lines = append(lines, fmt.Sprintf("  -%s\n      %s%s", fl.Name, fl.Usage, def))
	})
	sort.Strings(lines)

	if len(lines) == 0 {
		return ""
	}
	return "\n\nFlags:\n\n" + strings.Join(lines, "\n\n") + "\n"
}
