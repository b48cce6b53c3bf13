package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

func init() {
	Register(&SyncCmd{})
}

// SyncCmd implements the sync command.
type SyncCmd struct{}

func (c *SyncCmd) Name() string       { return "sync" }
func (c *SyncCmd) Aliases() []string  { return nil }
func (c *SyncCmd) Synopsis() string   { return "Push lists created while offline" }
func (c *SyncCmd) Usage() string      { return "todosync sync [common flags]" }
func (c *SyncCmd) NeedsService() bool { return true }

func (c *SyncCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SyncCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	report, err := svc.SyncPending(ctx)
	if err != nil {
		return localFailure(errOut, err)
	}

	for _, res := range report.Rejected {
		fmt.Fprintf(errOut, "error: server rejected %q: %v\n", res.List.Title, res.Err)
		printHints(errOut, res.Err)
	}

	if !cfg.Quiet {
		if report.Total() == 0 {
			fmt.Fprintln(out, "nothing to sync")
		} else {
			fmt.Fprintf(out, "synced %d, pending %d, rejected %d\n",
				len(report.Synced), len(report.Pending), len(report.Rejected))
		}
	}

	if len(report.Rejected) > 0 {
		return exitcode.BackendError
	}
	return exitcode.Success
}
