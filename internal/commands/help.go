package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todosync help" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		label := cmd.Name()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			label += " (" + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-22s %s\n", label, cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  todosync                                           Print all lists
  todosync lists [common flags]
  todosync show [common flags] <list>
  todosync createlist [common flags] [--theme <theme>] <title...>
  todosync addlist [common flags] [--theme <theme>] <title...>
  todosync rename [common flags] <list> <title...>
  todosync theme [common flags] <list> <theme>
  todosync rmlist [common flags] [--force] <list>
  todosync add [common flags] --list <list> [--star] <text...>
  todosync done [common flags] --list <list> <n>
  todosync star [common flags] --list <list> <n>
  todosync rm [common flags] --list <list> <n>
  todosync sync [common flags]
  todosync login [common flags] [--token <token> | --email <email> [--password <password>]]
  todosync logout [common flags] [--purge]
  todosync help
  todosync version [--verbose]

<list> is the number printed by 'lists', a list id, or a list title.
<n> is the task number printed by 'show'.

Changes are saved on this device first. When the server cannot be reached
they are kept and sent on the next save or 'sync'.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
