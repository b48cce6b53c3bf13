// Package identity classifies list identifiers as provisional (client-minted)
// or durable (server-assigned) and decides how a list is saved remotely.
package identity

import (
	"fmt"
	"strings"
	"time"
)

// Recognized client-minted prefixes.
const (
	TempPrefix    = "temp_"
	NewListPrefix = "new_list_"
)

// Kind tags an ID.
type Kind uint8

const (
	// Absent is the zero Kind: no identifier recorded.
	Absent Kind = iota
	// Provisional identifiers are minted on the device and never sent to the server.
	Provisional
	// Durable identifiers are assigned by the remote store.
	Durable
)

func (k Kind) String() string {
	switch k {
	case Provisional:
		return "provisional"
	case Durable:
		return "durable"
	default:
		return "absent"
	}
}

// ID is a list identifier tagged with its kind.
// The zero value is an absent identifier.
type ID struct {
	kind  Kind
	value string
}

// Parse classifies a raw identifier read from local storage or user input.
// Prefix sniffing happens here and nowhere else.
func Parse(raw string) ID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ID{}
	}
	if IsProvisional(raw) {
		return ID{kind: Provisional, value: raw}
	}
	return ID{kind: Durable, value: raw}
}

// FromServer wraps an identifier assigned by the remote store.
// Remote identifiers are durable regardless of their shape.
func FromServer(raw string) ID {
	if raw == "" {
		return ID{}
	}
	return ID{kind: Durable, value: raw}
}

// NewProvisional mints a provisional identifier from the given time.
// Format: temp_<unix millis>.
func NewProvisional(now time.Time) ID {
	return ID{kind: Provisional, value: fmt.Sprintf("%s%d", TempPrefix, now.UnixMilli())}
}

// IsProvisional reports whether raw carries one of the client-minted prefixes.
func IsProvisional(raw string) bool {
	return strings.HasPrefix(raw, TempPrefix) || strings.HasPrefix(raw, NewListPrefix)
}

// Kind returns the tag.
func (id ID) Kind() Kind { return id.kind }

// String returns the raw identifier.
func (id ID) String() string { return id.value }

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool { return id.kind == Absent }

// IsProvisional reports whether the identifier was minted on the device.
func (id ID) IsProvisional() bool { return id.kind == Provisional }

// IsDurable reports whether the identifier was assigned by the server.
func (id ID) IsDurable() bool { return id.kind == Durable }

// MarshalText encodes the raw identifier.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText decodes a persisted identifier using prefix classification.
func (id *ID) UnmarshalText(b []byte) error {
	*id = Parse(string(b))
	return nil
}
