package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/output"
	"todosync/internal/service"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
// Handles both `todosync` (no args) and `todosync lists`.
type ListsCmd struct{}

func (c *ListsCmd) Name() string       { return "lists" }
func (c *ListsCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListsCmd) Synopsis() string   { return "Print all lists" }
func (c *ListsCmd) Usage() string      { return "todosync lists [common flags]" }
func (c *ListsCmd) NeedsService() bool { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	res, err := svc.ListAll(ctx)
	if err != nil {
		return localFailure(errOut, err)
	}
	readNotice(cfg, errOut, res.Source, res.RemoteErr)

	if len(res.Lists) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no lists found")
		}
		return exitcode.Success
	}

	for i, l := range res.Lists {
		output.FormatListLine(out, i+1, l)
	}
	return exitcode.Success
}
