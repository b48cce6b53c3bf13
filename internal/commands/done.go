package commands

import (
	"context"
	"flag"
	"io"

	"todosync/internal/config"
	"todosync/internal/service"
)

func init() {
	Register(&DoneCmd{})
	Register(&StarCmd{})
}

// DoneCmd implements the done command. Running it on a completed task reopens it.
type DoneCmd struct {
	listRef string
}

// SetListRef sets the list reference (for testing).
func (c *DoneCmd) SetListRef(ref string) {
	c.listRef = ref
}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return nil }
func (c *DoneCmd) Synopsis() string   { return "Toggle a task completed" }
func (c *DoneCmd) Usage() string      { return "todosync done [common flags] --list <list> <n>" }
func (c *DoneCmd) NeedsService() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listRef, "list", "", "")
	fs.StringVar(&c.listRef, "l", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return editTask(ctx, cfg, svc, c.listRef, args, out, errOut, func(l *service.List, idx int) {
		l.Tasks[idx].Completed = !l.Tasks[idx].Completed
	})
}

// StarCmd implements the star command.
type StarCmd struct {
	listRef string
}

func (c *StarCmd) Name() string       { return "star" }
func (c *StarCmd) Aliases() []string  { return nil }
func (c *StarCmd) Synopsis() string   { return "Toggle a task starred" }
func (c *StarCmd) Usage() string      { return "todosync star [common flags] --list <list> <n>" }
func (c *StarCmd) NeedsService() bool { return true }

func (c *StarCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listRef, "list", "", "")
	fs.StringVar(&c.listRef, "l", "", "")
}

func (c *StarCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return editTask(ctx, cfg, svc, c.listRef, args, out, errOut, func(l *service.List, idx int) {
		l.Tasks[idx].Starred = !l.Tasks[idx].Starred
	})
}
