// Package localstore persists lists on the device.
//
// Both implementations keep a single ordered record set keyed by list
// identifier. The collection view is every record in order, and a per-list
// entry is one record, so the two can never disagree about membership.
package localstore

import (
	"context"

	"todosync/internal/identity"
	"todosync/internal/service"
)

// Store is the local persistence contract consumed by the sync engine.
// Every method is total: a missing key is reported as absent, never as an
// error. Returned errors are marked service.ErrLocalStore.
type Store interface {
	// ReadCollection returns every cached list in collection order.
	// An empty store returns an empty slice.
	ReadCollection(ctx context.Context) ([]service.List, error)

	// WriteCollection replaces the whole record set with lists, in order.
	WriteCollection(ctx context.Context, lists []service.List) error

	// ReadEntry returns the list cached under id. ok is false if absent.
	ReadEntry(ctx context.Context, id identity.ID) (l service.List, ok bool, err error)

	// WriteEntry upserts the list under id. An existing record keeps its
	// position; a new one is appended.
	WriteEntry(ctx context.Context, id identity.ID, l service.List) error

	// RemoveEntry deletes the record under id. Removing an absent id succeeds.
	RemoveEntry(ctx context.Context, id identity.ID) error
}
