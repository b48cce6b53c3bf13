package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

func init() {
	Register(&CreateListCmd{})
}

// CreateListCmd implements the createlist command.
type CreateListCmd struct {
	theme string
}

func (c *CreateListCmd) Name() string       { return "createlist" }
func (c *CreateListCmd) Aliases() []string  { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string   { return "Create a new list" }
func (c *CreateListCmd) Usage() string      { return "todosync createlist [common flags] [--theme <theme>] <title...>" }
func (c *CreateListCmd) NeedsService() bool { return true }

func (c *CreateListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.theme, "theme", "", "")
}

func (c *CreateListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: list title required")
		return exitcode.UserError
	}

	// Check if list already exists
	res, err := svc.ListAll(ctx)
	if err != nil {
		return localFailure(errOut, err)
	}
	for _, existing := range res.Lists {
		if strings.EqualFold(strings.TrimSpace(existing.Title), title) {
			fmt.Fprintf(errOut, "error: list already exists: %s\n", title)
			return exitcode.UserError
		}
	}

	l := service.NewList(title, time.Now())
	if theme := strings.TrimSpace(c.theme); theme != "" {
		l.Theme = theme
	}
	return saveList(ctx, cfg, svc, l, out, errOut)
}
