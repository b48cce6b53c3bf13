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
	Register(&RmListCmd{})
}

// RmListCmd implements the rmlist command.
type RmListCmd struct {
	force bool
}

// SetForce sets the force flag (for testing).
func (c *RmListCmd) SetForce(force bool) {
	c.force = force
}

func (c *RmListCmd) Name() string       { return "rmlist" }
func (c *RmListCmd) Aliases() []string  { return nil }
func (c *RmListCmd) Synopsis() string   { return "Delete a list" }
func (c *RmListCmd) Usage() string      { return "todosync rmlist [common flags] [--force] <list>" }
func (c *RmListCmd) NeedsService() bool { return true }

func (c *RmListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		fmt.Fprintln(errOut, "error: list reference required")
		return exitcode.UserError
	}

	l, code := resolveList(ctx, cfg, svc, ref, errOut)
	if code != exitcode.Success {
		return code
	}

	// Refuse to drop open tasks unless --force
	if !c.force && l.OpenCount() > 0 {
		fmt.Fprintln(errOut, "error: list not empty (use --force)")
		return exitcode.UserError
	}

	res, err := svc.Delete(ctx, l.ID)
	if err != nil {
		return localFailure(errOut, err)
	}

	if res.RemoteErr != nil && !service.IsNotFound(res.RemoteErr) && !cfg.Quiet {
		fmt.Fprintln(errOut, "warning: server not reachable; list removed from this device only")
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
