package service

import (
	"github.com/cockroachdb/errors"
)

// Failure taxonomy. Backends and stores mark their errors with one of these
// using MarkTransport, MarkRejected, MarkNotFound or MarkLocalStore; callers
// test with the Is helpers.
var (
	// ErrTransport means the request never got a meaningful response.
	ErrTransport = errors.New("transport failure")

	// ErrRejected means the server understood the request and refused it.
	ErrRejected = errors.New("rejected by server")

	// ErrNotFound means the durable identifier is unknown to the server.
	ErrNotFound = errors.New("not found")

	// ErrLocalStore means device storage is unavailable or corrupt.
	ErrLocalStore = errors.New("local store failure")
)

// MarkTransport tags err as a transport failure.
func MarkTransport(err error) error { return mark(err, ErrTransport) }

// MarkRejected tags err as a server rejection.
func MarkRejected(err error) error { return mark(err, ErrRejected) }

// MarkNotFound tags err as a missing remote resource.
func MarkNotFound(err error) error { return mark(err, ErrNotFound) }

// MarkLocalStore tags err as a local storage failure.
func MarkLocalStore(err error) error { return mark(err, ErrLocalStore) }

func mark(err, ref error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ref)
}

// IsTransport reports whether err should take the offline fallback path.
// Remote errors that are neither rejected nor not-found count as transport.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransport) {
		return true
	}
	return !errors.IsAny(err, ErrRejected, ErrNotFound, ErrLocalStore)
}

// IsRejected reports whether the server refused the request.
func IsRejected(err error) bool {
	return err != nil && errors.Is(err, ErrRejected)
}

// IsNotFound reports whether the server no longer has the resource.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// IsLocalStore reports whether device storage failed.
func IsLocalStore(err error) bool {
	return err != nil && errors.Is(err, ErrLocalStore)
}
