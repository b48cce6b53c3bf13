// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"todosync/internal/identity"
	"todosync/internal/service"
)

// Canned failures, already marked with the service taxonomy.
var (
	ErrOffline  = service.MarkTransport(errors.New("dial tcp: network is unreachable"))
	ErrRejected = service.MarkRejected(errors.New("status 400: title is required"))
	ErrNotFound = service.MarkNotFound(errors.New("status 404: todo list not found"))
)

// FakeRemote is an in-memory implementation of service.Remote for testing.
type FakeRemote struct {
	mu     sync.RWMutex
	lists  []service.List
	nextID int

	// NextIDs, when non-empty, supplies the durable ids handed out by Create in order.
	NextIDs []string

	// Now stamps UpdatedAt on created and updated lists.
	Now func() time.Time

	// Error injection for testing
	ListAllErr error
	GetErr     error
	CreateErr  error
	UpdateErr  error
	DeleteErr  error

	// Call counters
	ListAllCalls int
	GetCalls     int
	CreateCalls  int
	UpdateCalls  int
	DeleteCalls  int
}

var _ service.Remote = (*FakeRemote)(nil)

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		Now: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

// AddList seeds a server-side list.
func (f *FakeRemote) AddList(id, title string) service.List {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := service.List{
		ID:        identity.FromServer(id),
		Title:     title,
		Tasks:     []service.Task{},
		Theme:     service.DefaultTheme,
		CreatedAt: f.Now(),
		UpdatedAt: f.Now(),
	}
	f.lists = append(f.lists, l)
	return l.Clone()
}

// SetOffline makes every operation fail with a transport error.
func (f *FakeRemote) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if offline {
		err = ErrOffline
	}
	f.ListAllErr, f.GetErr, f.CreateErr, f.UpdateErr, f.DeleteErr = err, err, err, err, err
}

// Lists returns a snapshot of the server-side lists.
func (f *FakeRemote) Lists() []service.List {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.List, len(f.lists))
	for i, l := range f.lists {
		out[i] = l.Clone()
	}
	return out
}

// Has reports whether the server holds a list with the given id.
func (f *FakeRemote) Has(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.indexOf(id) >= 0
}

// ListAll implements service.Remote.
func (f *FakeRemote) ListAll(ctx context.Context) ([]service.List, error) {
	f.mu.Lock()
	f.ListAllCalls++
	f.mu.Unlock()
	if f.ListAllErr != nil {
		return nil, f.ListAllErr
	}
	return f.Lists(), nil
}

// Get implements service.Remote.
func (f *FakeRemote) Get(ctx context.Context, id string) (service.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	if f.GetErr != nil {
		return service.List{}, f.GetErr
	}
	i := f.indexOf(id)
	if i < 0 {
		return service.List{}, ErrNotFound
	}
	return f.lists[i].Clone(), nil
}

// Create implements service.Remote.
func (f *FakeRemote) Create(ctx context.Context, l service.List) (service.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return service.List{}, f.CreateErr
	}

	var id string
	if len(f.NextIDs) > 0 {
		id, f.NextIDs = f.NextIDs[0], f.NextIDs[1:]
	} else {
		f.nextID++
		id = fmt.Sprintf("srv%d", f.nextID)
	}

	saved := l.Clone()
	saved.ID = identity.FromServer(id)
	saved.CreatedAt = f.Now()
	saved.UpdatedAt = f.Now()
	f.lists = append(f.lists, saved)
	return saved.Clone(), nil
}

// Update implements service.Remote.
func (f *FakeRemote) Update(ctx context.Context, durableID string, l service.List) (service.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	if f.UpdateErr != nil {
		return service.List{}, f.UpdateErr
	}
	i := f.indexOf(durableID)
	if i < 0 {
		return service.List{}, ErrNotFound
	}
	saved := l.Clone()
	saved.ID = f.lists[i].ID
	saved.CreatedAt = f.lists[i].CreatedAt
	saved.UpdatedAt = f.Now()
	f.lists[i] = saved
	return saved.Clone(), nil
}

// Delete implements service.Remote.
func (f *FakeRemote) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	i := f.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	f.lists = append(f.lists[:i], f.lists[i+1:]...)
	return nil
}

func (f *FakeRemote) indexOf(id string) int {
	for i, l := range f.lists {
		if l.ID.String() == id {
			return i
		}
	}
	return -1
}
