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
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	listRef string
	star    bool
}

// SetListRef sets the list reference (for testing).
func (c *AddCmd) SetListRef(ref string) {
	c.listRef = ref
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Add a task to a list" }
func (c *AddCmd) Usage() string      { return "todosync add [common flags] --list <list> [--star] <text...>" }
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listRef, "list", "", "")
	fs.StringVar(&c.listRef, "l", "", "")
	fs.BoolVar(&c.star, "star", false, "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.listRef == "" {
		fmt.Fprintln(errOut, "error: --list required")
		return exitcode.UserError
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		fmt.Fprintln(errOut, "error: task text required")
		return exitcode.UserError
	}

	l, code := loadList(ctx, cfg, svc, c.listRef, errOut)
	if code != exitcode.Success {
		return code
	}

	task := service.NewTask(text, time.Now())
	task.Starred = c.star
	l.Tasks = append(l.Tasks, task)
	return saveList(ctx, cfg, svc, l, out, errOut)
}
