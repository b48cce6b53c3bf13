// Package service defines the backend-agnostic types and contracts for list synchronization.
package service

import (
	"context"

	"todosync/internal/identity"
)

// Remote is the contract for the server that assigns durable identifiers.
// Implementations mark failures with the taxonomy in errors.go and must bound
// request latency themselves: a hang is reported as a transport failure.
type Remote interface {
	// ListAll returns every list owned by the caller.
	ListAll(ctx context.Context) ([]List, error)

	// Get returns one list by durable identifier.
	// Returns an ErrNotFound-marked error if the server does not have it.
	Get(ctx context.Context, id string) (List, error)

	// Create persists a new list and returns it with its durable identifier.
	Create(ctx context.Context, l List) (List, error)

	// Update replaces the list stored under durableID and returns the server copy.
	Update(ctx context.Context, durableID string, l List) (List, error)

	// Delete removes a list.
	Delete(ctx context.Context, id string) error
}

// Service is what the UI layer calls. It never reports offline operation as an
// error: the error return is reserved for local store failures.
type Service interface {
	// ListAll returns the authoritative collection, or the cached one when offline.
	ListAll(ctx context.Context) (ListResult, error)

	// Get returns a single list. Provisional identifiers never reach the remote.
	Get(ctx context.Context, id identity.ID) (GetResult, error)

	// Save writes the list locally, then creates or updates it remotely.
	Save(ctx context.Context, l List) (SaveResult, error)

	// Delete removes the list locally and, for durable identifiers, best-effort remotely.
	Delete(ctx context.Context, id identity.ID) (DeleteResult, error)

	// SyncPending pushes every list that still carries a provisional identifier.
	SyncPending(ctx context.Context) (SyncReport, error)
}

// Source tells where a read was served from.
type Source uint8

const (
	SourceRemote Source = iota + 1
	SourceCache
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCache:
		return "cache"
	default:
		return "unknown"
	}
}

// ListResult is the outcome of ListAll.
type ListResult struct {
	Lists  []List
	Source Source

	// RemoteErr holds the remote failure that caused a cache read, if any.
	RemoteErr error
}

// GetResult is the outcome of Get.
type GetResult struct {
	List   List
	Found  bool
	Source Source

	// Stale is set when the server reported the durable identifier as missing
	// and the cached copy was returned instead. Callers should re-list.
	Stale bool

	RemoteErr error
}

// SaveStatus says how far a save got.
type SaveStatus uint8

const (
	// Synced: the remote accepted the list.
	Synced SaveStatus = iota + 1
	// Pending: saved locally, the remote was unreachable.
	Pending
	// Rejected: saved locally, the remote refused the list.
	Rejected
)

func (s SaveStatus) String() string {
	switch s {
	case Synced:
		return "synced"
	case Pending:
		return "pending"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// SaveResult is the outcome of Save. List is the durable version when the
// remote accepted it, the local version otherwise.
type SaveResult struct {
	List   List
	Status SaveStatus

	// Err is the remote failure for Pending and Rejected saves.
	Err error
}

// DeleteResult is the outcome of Delete. Removed is always true once the local
// removal committed; the remote outcome is informational.
type DeleteResult struct {
	Removed         bool
	RemoteAttempted bool
	RemoteErr       error
}

// SyncReport groups the outcomes of a SyncPending run.
type SyncReport struct {
	Synced   []SaveResult
	Pending  []SaveResult
	Rejected []SaveResult
}

// Total returns the number of lists attempted.
func (r SyncReport) Total() int {
	return len(r.Synced) + len(r.Pending) + len(r.Rejected)
}
