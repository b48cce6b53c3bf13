package syncengine

import (
	"context"

	"todosync/internal/identity"
	"todosync/internal/logger"
	"todosync/internal/service"
)

// ListAll returns the server's lists and mirrors them into the cache. Lists
// still waiting for their first remote save are kept after the server's, and
// a durable list with an unsynced local edit keeps the local copy.
// When the remote fails, the cached collection is returned instead.
func (e *Engine) ListAll(ctx context.Context) (service.ListResult, error) {
	remote, err := e.remote.ListAll(ctx)
	if err != nil {
		e.log.Warnw("Remote list failed, serving cache", logger.FieldError, err)
		cached, lerr := e.local.ReadCollection(ctx)
		if lerr != nil {
			return service.ListResult{}, lerr
		}
		return service.ListResult{Lists: cached, Source: service.SourceCache, RemoteErr: err}, nil
	}

	lists, err := e.mirror(ctx, remote)
	if err != nil {
		return service.ListResult{}, err
	}
	e.log.Debugw("Listed lists", logger.FieldCount, len(lists), logger.FieldSource, service.SourceRemote)
	return service.ListResult{Lists: lists, Source: service.SourceRemote}, nil
}

func (e *Engine) mirror(ctx context.Context, remote []service.List) ([]service.List, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cached, err := e.local.ReadCollection(ctx)
	if err != nil {
		return nil, err
	}

	edited := make(map[identity.ID]service.List)
	for _, l := range cached {
		if l.Pending && l.ID.IsDurable() {
			edited[l.ID] = l
		}
	}

	merged := make([]service.List, 0, len(remote)+len(cached))
	for _, l := range remote {
		if !l.ID.IsDurable() {
			e.log.Warnw("Dropping remote list without durable id", "title", l.Title)
			continue
		}
		if local, ok := edited[l.ID]; ok {
			l = local
			delete(edited, l.ID)
		}
		merged = append(merged, l)
	}
	// Edited lists the server no longer returns are kept too; the next sync
	// gets NotFound for them and clears the mark.
	for _, l := range cached {
		if _, ok := edited[l.ID]; ok || l.ID.IsProvisional() {
			merged = append(merged, l)
		}
	}

	if err := e.local.WriteCollection(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Get returns one list. Provisional identifiers are answered from the cache
// alone. Durable ones go to the remote first and fall back to the cache; a
// cached copy with an unsynced edit wins over the server's.
func (e *Engine) Get(ctx context.Context, id identity.ID) (service.GetResult, error) {
	if id.IsZero() {
		return service.GetResult{Source: service.SourceCache}, nil
	}
	if id.IsProvisional() {
		return e.readCached(ctx, id, nil)
	}

	l, err := e.remote.Get(ctx, id.String())
	if err == nil {
		return e.recordFetched(ctx, id, l)
	}

	e.log.Warnw("Remote get failed, serving cache", logger.FieldListID, id, logger.FieldError, err)
	res, lerr := e.readCached(ctx, id, err)
	if lerr != nil {
		return service.GetResult{}, lerr
	}
	res.Stale = res.Found && service.IsNotFound(err)
	return res, nil
}

func (e *Engine) recordFetched(ctx context.Context, id identity.ID, l service.List) (service.GetResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cached, ok, err := e.local.ReadEntry(ctx, id)
	if err != nil {
		return service.GetResult{}, err
	}
	if ok && cached.Pending {
		return service.GetResult{List: cached, Found: true, Source: service.SourceCache}, nil
	}
	if err := e.local.WriteEntry(ctx, id, l); err != nil {
		return service.GetResult{}, err
	}
	return service.GetResult{List: l, Found: true, Source: service.SourceRemote}, nil
}

func (e *Engine) readCached(ctx context.Context, id identity.ID, remoteErr error) (service.GetResult, error) {
	l, ok, err := e.local.ReadEntry(ctx, id)
	if err != nil {
		return service.GetResult{}, err
	}
	return service.GetResult{List: l, Found: ok, Source: service.SourceCache, RemoteErr: remoteErr}, nil
}
