package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct {
	purge bool
}

// SetPurge sets the purge flag (for testing).
func (c *LogoutCmd) SetPurge(purge bool) {
	c.purge = purge
}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "Remove stored credentials" }
func (c *LogoutCmd) Usage() string      { return "todosync logout [common flags] [--purge]" }
func (c *LogoutCmd) NeedsService() bool { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.purge, "purge", false, "")
}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.purge {
		// The store keeps WAL side files next to the database.
		for _, path := range []string{cfg.Settings.StorePath, cfg.Settings.StorePath + "-wal", cfg.Settings.StorePath + "-shm"} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(errOut, "error: failed to remove cache: %v\n", err)
				return exitcode.LocalError
			}
		}
	}

	if !cfg.HasToken() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
