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
	Register(&RenameCmd{})
	Register(&ThemeCmd{})
}

// RenameCmd implements the rename command.
type RenameCmd struct{}

func (c *RenameCmd) Name() string       { return "rename" }
func (c *RenameCmd) Aliases() []string  { return nil }
func (c *RenameCmd) Synopsis() string   { return "Rename a list" }
func (c *RenameCmd) Usage() string      { return "todosync rename [common flags] <list> <title...>" }
func (c *RenameCmd) NeedsService() bool { return true }

func (c *RenameCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RenameCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: list reference required")
		return exitcode.UserError
	}
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: new title required")
		return exitcode.UserError
	}

	l, code := loadList(ctx, cfg, svc, args[0], errOut)
	if code != exitcode.Success {
		return code
	}
	l.Title = title
	return saveList(ctx, cfg, svc, l, out, errOut)
}

// ThemeCmd implements the theme command.
type ThemeCmd struct{}

func (c *ThemeCmd) Name() string       { return "theme" }
func (c *ThemeCmd) Aliases() []string  { return nil }
func (c *ThemeCmd) Synopsis() string   { return "Set the display theme of a list" }
func (c *ThemeCmd) Usage() string      { return "todosync theme [common flags] <list> <theme>" }
func (c *ThemeCmd) NeedsService() bool { return true }

func (c *ThemeCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ThemeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
		fmt.Fprintln(errOut, "error: usage: "+c.Usage())
		return exitcode.UserError
	}

	l, code := loadList(ctx, cfg, svc, args[0], errOut)
	if code != exitcode.Success {
		return code
	}
	l.Theme = strings.TrimSpace(args[1])
	return saveList(ctx, cfg, svc, l, out, errOut)
}
