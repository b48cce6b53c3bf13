// Package syncengine reconciles locally cached lists with the remote store.
//
// The local store is written first on every mutation, so the device always
// holds the user's latest edit. The remote is consulted for authoritative
// reads and receives writes when reachable. Transport failures degrade to the
// cache and never surface as errors; only local store failures do.
package syncengine

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"todosync/internal/localstore"
	"todosync/internal/logger"
	"todosync/internal/service"
)

// DefaultConcurrency bounds SyncPending's parallel saves.
const DefaultConcurrency = 4

// Engine implements service.Service on top of a local store and a remote.
type Engine struct {
	local       localstore.Store
	remote      service.Remote
	log         *zap.SugaredLogger
	now         func() time.Time
	concurrency int

	// mu serializes read-modify-write sequences on the local store within
	// this process. Remote calls run outside it.
	mu sync.Mutex
}

var _ service.Service = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to the package-level logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the time source used to mint provisional identifiers.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithConcurrency bounds how many lists SyncPending pushes at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New creates an Engine.
func New(local localstore.Store, remote service.Remote, opts ...Option) *Engine {
	e := &Engine{
		local:       local,
		remote:      remote,
		log:         logger.Logger,
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.FieldComponent, "syncengine")
	return e
}

// Close releases the local store if it holds resources.
func (e *Engine) Close() error {
	if c, ok := e.local.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
