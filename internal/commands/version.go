package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/localstore"
	"todosync/internal/service"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd prints the release. With --verbose it also prints the settings
// that decide where lists live, which is what a bug report needs.
type VersionCmd struct {
	verbose bool
}

func (c *VersionCmd) Name() string       { return "version" }
func (c *VersionCmd) Aliases() []string  { return nil }
func (c *VersionCmd) Synopsis() string   { return "Print version" }
func (c *VersionCmd) Usage() string      { return "todosync version [--verbose]" }
func (c *VersionCmd) NeedsService() bool { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "verbose", false, "")
}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "todosync %s\n", Version)
	if !c.verbose {
		return exitcode.Success
	}
	fmt.Fprintf(out, "backend:      %s\n", cfg.Settings.Backend)
	fmt.Fprintf(out, "store:        %s (schema %d)\n", cfg.Settings.StorePath, localstore.SchemaVersion)
	fmt.Fprintf(out, "config:       %s\n", cfg.SettingsPath())
	return exitcode.Success
}
