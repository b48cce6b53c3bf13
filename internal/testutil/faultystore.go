package testutil

import (
	"context"

	"github.com/cockroachdb/errors"

	"todosync/internal/identity"
	"todosync/internal/localstore"
	"todosync/internal/service"
)

// ErrDiskFull is a canned local storage failure.
var ErrDiskFull = service.MarkLocalStore(errors.New("disk I/O error: database or disk is full"))

// FaultyStore wraps a Store and fails the operations whose error field is set.
type FaultyStore struct {
	localstore.Store

	ReadCollectionErr  error
	WriteCollectionErr error
	ReadEntryErr       error
	WriteEntryErr      error
	RemoveEntryErr     error
}

// NewFaultyStore wraps an in-memory store.
func NewFaultyStore() *FaultyStore {
	return &FaultyStore{Store: localstore.NewMemory()}
}

// ReadCollection implements localstore.Store.
func (s *FaultyStore) ReadCollection(ctx context.Context) ([]service.List, error) {
	if s.ReadCollectionErr != nil {
		return nil, s.ReadCollectionErr
	}
	return s.Store.ReadCollection(ctx)
}

// WriteCollection implements localstore.Store.
func (s *FaultyStore) WriteCollection(ctx context.Context, lists []service.List) error {
	if s.WriteCollectionErr != nil {
		return s.WriteCollectionErr
	}
	return s.Store.WriteCollection(ctx, lists)
}

// ReadEntry implements localstore.Store.
func (s *FaultyStore) ReadEntry(ctx context.Context, id identity.ID) (service.List, bool, error) {
	if s.ReadEntryErr != nil {
		return service.List{}, false, s.ReadEntryErr
	}
	return s.Store.ReadEntry(ctx, id)
}

// WriteEntry implements localstore.Store.
func (s *FaultyStore) WriteEntry(ctx context.Context, id identity.ID, l service.List) error {
	if s.WriteEntryErr != nil {
		return s.WriteEntryErr
	}
	return s.Store.WriteEntry(ctx, id, l)
}

// RemoveEntry implements localstore.Store.
func (s *FaultyStore) RemoveEntry(ctx context.Context, id identity.ID) error {
	if s.RemoveEntryErr != nil {
		return s.RemoveEntryErr
	}
	return s.Store.RemoveEntry(ctx, id)
}
