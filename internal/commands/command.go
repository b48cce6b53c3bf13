// Package commands holds the todosync subcommands. Each one registers itself
// from init and talks to lists only through service.Service, so it never
// knows whether an answer came from the server or the device cache.
package commands

import (
	"context"
	"flag"
	"io"

	"todosync/internal/config"
	"todosync/internal/service"
)

// Command is one subcommand. The dispatcher parses the common flags and the
// flags from RegisterFlags, builds the sync engine when NeedsService says so,
// and turns the returned value into the process exit code (see exitcode).
type Command interface {
	Name() string
	Aliases() []string

	// Synopsis is the one-line summary shown by help; Usage is the full form.
	Synopsis() string
	Usage() string

	// NeedsService reports whether Run reads or writes lists. Commands that
	// only touch the config dir (help, version, login, logout) return false
	// and get a nil svc, so they work without a device store.
	NeedsService() bool

	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command with positional args. A remote failure is not
	// an error for Run: the engine has already served the cache or kept the
	// write locally, and Run reports that on errOut unless cfg.Quiet is set.
	// A failure that only reached the remote leaves the code at zero unless
	// the server refused the request.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}
