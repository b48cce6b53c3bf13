package syncengine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"todosync/internal/identity"
	"todosync/internal/logger"
	"todosync/internal/service"
)

// Save writes the list to the local store, then creates or updates it on the
// remote. A list without an identifier gets a provisional one first.
//
// The returned error is non-nil only when the local store fails. Remote
// failures are reported through SaveResult.Status and SaveResult.Err, and the
// local write stands in every case. A durable list the remote could not be
// reached for stays marked Pending until a later save gets through.
func (e *Engine) Save(ctx context.Context, l service.List) (service.SaveResult, error) {
	l = l.Clone()
	l.Pending = false

	e.mu.Lock()
	if l.ID.IsZero() {
		id, err := e.mintProvisional(ctx)
		if err != nil {
			e.mu.Unlock()
			return service.SaveResult{}, err
		}
		l.ID = id
	}
	original := l.ID
	// Recorded as pending until the remote answers, so a crash in between
	// leaves the edit queued for SyncPending.
	draft := l
	draft.Pending = original.IsDurable()
	err := e.local.WriteEntry(ctx, original, draft)
	e.mu.Unlock()
	if err != nil {
		return service.SaveResult{}, err
	}

	target := identity.ResolveSaveTarget(original)
	var saved service.List
	switch target.Method {
	case identity.Create:
		saved, err = e.remote.Create(ctx, l)
	case identity.Update:
		saved, err = e.remote.Update(ctx, target.DurableID, l)
	}
	if err == nil && !saved.ID.IsDurable() {
		err = service.MarkRejected(errors.Newf("server answered %s without a durable id", target.Method))
	}

	if err != nil {
		status := service.Pending
		if !service.IsTransport(err) {
			status = service.Rejected
		}
		// A rejected edit is not retried; the next mirror restores the
		// server copy.
		l.Pending = status == service.Pending && original.IsDurable()
		e.log.Warnw("Remote save failed, kept locally",
			logger.FieldListID, original,
			logger.FieldMethod, target.Method,
			logger.FieldStatus, status,
			logger.FieldError, err)

		if lerr := e.replaceInCollection(ctx, l, original); lerr != nil {
			return service.SaveResult{}, lerr
		}
		return service.SaveResult{List: l, Status: status, Err: err}, nil
	}

	saved.Pending = false
	if err := e.promote(ctx, original, saved); err != nil {
		return service.SaveResult{}, err
	}
	e.log.Infow("Saved list",
		logger.FieldListID, original,
		logger.FieldDurableID, saved.ID,
		logger.FieldMethod, target.Method)
	return service.SaveResult{List: saved, Status: service.Synced}, nil
}

// promote records the server copy. When the identifier changed, the
// provisional record is replaced in place and then dropped.
func (e *Engine) promote(ctx context.Context, original identity.ID, saved service.List) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	coll, err := e.local.ReadCollection(ctx)
	if err != nil {
		return err
	}
	if err := e.local.WriteCollection(ctx, upsert(coll, saved, original, saved.ID)); err != nil {
		return err
	}
	if original != saved.ID {
		if err := e.local.RemoveEntry(ctx, original); err != nil {
			return err
		}
	}
	return e.local.WriteEntry(ctx, saved.ID, saved)
}

func (e *Engine) replaceInCollection(ctx context.Context, l service.List, match identity.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	coll, err := e.local.ReadCollection(ctx)
	if err != nil {
		return err
	}
	return e.local.WriteCollection(ctx, upsert(coll, l, match))
}

// upsert puts l at the position of the first list matching any of ids and
// drops other matches, or appends l when nothing matches.
func upsert(coll []service.List, l service.List, ids ...identity.ID) []service.List {
	out := make([]service.List, 0, len(coll)+1)
	placed := false
	for _, c := range coll {
		if !matches(c.ID, ids) {
			out = append(out, c)
			continue
		}
		if !placed {
			out = append(out, l)
			placed = true
		}
	}
	if !placed {
		out = append(out, l)
	}
	return out
}

func matches(id identity.ID, ids []identity.ID) bool {
	for _, m := range ids {
		if id == m {
			return true
		}
	}
	return false
}

// Delete removes the list from the local store unconditionally and, for a
// durable identifier, asks the remote to delete it too. The remote outcome is
// recorded in the result and never turns into an error.
func (e *Engine) Delete(ctx context.Context, id identity.ID) (service.DeleteResult, error) {
	if id.IsZero() {
		return service.DeleteResult{Removed: true}, nil
	}

	if err := e.removeLocal(ctx, id); err != nil {
		return service.DeleteResult{}, err
	}

	res := service.DeleteResult{Removed: true}
	if id.IsProvisional() {
		return res, nil
	}

	res.RemoteAttempted = true
	if err := e.remote.Delete(ctx, id.String()); err != nil {
		res.RemoteErr = err
		e.log.Warnw("Remote delete failed, removed locally", logger.FieldListID, id, logger.FieldError, err)
	}
	return res, nil
}

func (e *Engine) removeLocal(ctx context.Context, id identity.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.local.RemoveEntry(ctx, id); err != nil {
		return err
	}
	coll, err := e.local.ReadCollection(ctx)
	if err != nil {
		return err
	}
	kept := coll[:0]
	for _, l := range coll {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(coll) {
		return nil
	}
	return e.local.WriteCollection(ctx, kept)
}

// SyncPending saves every cached list the server has not seen yet, a bounded
// number at a time: lists with a provisional identifier and durable lists
// edited while the remote was unreachable.
func (e *Engine) SyncPending(ctx context.Context) (service.SyncReport, error) {
	coll, err := e.local.ReadCollection(ctx)
	if err != nil {
		return service.SyncReport{}, err
	}

	var pending []service.List
	for _, l := range coll {
		if l.NeedsSync() {
			pending = append(pending, l)
		}
	}
	if len(pending) == 0 {
		return service.SyncReport{}, nil
	}

	results := make([]service.SaveResult, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, l := range pending {
		g.Go(func() error {
			res, err := e.Save(gctx, l)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return service.SyncReport{}, err
	}

	var report service.SyncReport
	for _, res := range results {
		switch res.Status {
		case service.Synced:
			report.Synced = append(report.Synced, res)
		case service.Rejected:
			report.Rejected = append(report.Rejected, res)
		default:
			report.Pending = append(report.Pending, res)
		}
	}
	e.log.Infow("Synced pending lists",
		logger.FieldCount, report.Total(),
		"synced", len(report.Synced),
		"pending", len(report.Pending),
		"rejected", len(report.Rejected))
	return report, nil
}

// mintProvisional returns a provisional id not yet held by the local store.
// Lists created within the same millisecond take the next free one. Callers
// hold e.mu.
func (e *Engine) mintProvisional(ctx context.Context) (identity.ID, error) {
	now := e.now()
	for {
		id := identity.NewProvisional(now)
		_, exists, err := e.local.ReadEntry(ctx, id)
		if err != nil {
			return identity.ID{}, err
		}
		if !exists {
			return id, nil
		}
		now = now.Add(time.Millisecond)
	}
}
