package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

// readNotice tells the user a read was answered from the device cache.
func readNotice(cfg *config.Config, errOut io.Writer, source service.Source, remoteErr error) {
	if cfg.Quiet || source != service.SourceCache {
		return
	}
	if remoteErr == nil || service.IsTransport(remoteErr) {
		fmt.Fprintln(errOut, "offline: showing cached lists")
		return
	}
	fmt.Fprintf(errOut, "warning: server error: %v; showing cached lists\n", remoteErr)
}

// localFailure reports a device store error.
func localFailure(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: local store: %v\n", err)
	return exitcode.LocalError
}

// reportSave prints the outcome of a save and returns the exit code.
func reportSave(cfg *config.Config, out, errOut io.Writer, res service.SaveResult) int {
	switch res.Status {
	case service.Synced:
		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	case service.Pending:
		if !cfg.Quiet {
			fmt.Fprintln(out, "ok (pending sync)")
		}
		return exitcode.Success
	default:
		fmt.Fprintf(errOut, "error: server rejected change: %v\n", res.Err)
		printHints(errOut, res.Err)
		fmt.Fprintln(errOut, "the change is kept on this device")
		return exitcode.BackendError
	}
}

func printHints(errOut io.Writer, err error) {
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(errOut, "hint: %s\n", hint)
	}
}

// resolveList fetches every list and picks the one ref names.
// The returned code is exitcode.Success when the list was found.
func resolveList(ctx context.Context, cfg *config.Config, svc service.Service, ref string, errOut io.Writer) (service.List, int) {
	res, err := svc.ListAll(ctx)
	if err != nil {
		return service.List{}, localFailure(errOut, err)
	}
	readNotice(cfg, errOut, res.Source, res.RemoteErr)

	l, err := FindList(res.Lists, ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.List{}, exitcode.UserError
	}
	return l, exitcode.Success
}

// loadList resolves ref and then reads the freshest copy of that list.
func loadList(ctx context.Context, cfg *config.Config, svc service.Service, ref string, errOut io.Writer) (service.List, int) {
	l, code := resolveList(ctx, cfg, svc, ref, errOut)
	if code != exitcode.Success {
		return l, code
	}

	res, err := svc.Get(ctx, l.ID)
	if err != nil {
		return service.List{}, localFailure(errOut, err)
	}
	if !res.Found {
		return l, exitcode.Success
	}
	if res.Stale && !cfg.Quiet {
		fmt.Fprintln(errOut, "warning: list no longer exists on the server; using the copy on this device")
	}
	return res.List, exitcode.Success
}

// editTask loads the list named by listRef, applies fn to the task numbered
// by args[0], and saves the list.
func editTask(ctx context.Context, cfg *config.Config, svc service.Service, listRef string, args []string, out, errOut io.Writer, fn func(l *service.List, idx int)) int {
	if listRef == "" {
		fmt.Fprintln(errOut, "error: --list required")
		return exitcode.UserError
	}
	num, err := ParseTaskNum(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	l, code := loadList(ctx, cfg, svc, listRef, errOut)
	if code != exitcode.Success {
		return code
	}

	idx, err := TaskAt(l, num)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	fn(&l, idx)
	return saveList(ctx, cfg, svc, l, out, errOut)
}

func saveList(ctx context.Context, cfg *config.Config, svc service.Service, l service.List, out, errOut io.Writer) int {
	res, err := svc.Save(ctx, l)
	if err != nil {
		return localFailure(errOut, err)
	}
	return reportSave(cfg, out, errOut, res)
}
