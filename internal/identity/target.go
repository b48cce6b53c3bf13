package identity

// Method is the remote operation used to persist a list.
type Method uint8

const (
	Create Method = iota + 1
	Update
)

func (m Method) String() string {
	switch m {
	case Create:
		return "create"
	case Update:
		return "update"
	default:
		return "unknown"
	}
}

// SaveTarget describes how a save reaches the remote store.
type SaveTarget struct {
	Method Method

	// DurableID is set only for Update.
	DurableID string
}

// UsesDurableID reports whether the request addresses an existing server resource.
func (t SaveTarget) UsesDurableID() bool {
	return t.Method == Update
}

// ResolveSaveTarget routes a list to Create unless it already carries a
// durable identifier. It depends only on the identifier, never on connectivity.
func ResolveSaveTarget(id ID) SaveTarget {
	if id.IsDurable() {
		return SaveTarget{Method: Update, DurableID: id.value}
	}
	return SaveTarget{Method: Create}
}
