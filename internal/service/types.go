// Package service defines the backend-agnostic types and contracts for list synchronization.
package service

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"todosync/internal/identity"
)

const (
	// DefaultTitle is used when a list is created without a title.
	DefaultTitle = "Untitled list"

	// DefaultTheme is the display key given to new lists.
	DefaultTheme = "solid_black"
)

// Task is a single entry of a list. Tasks are owned by their list and never
// synchronized on their own.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Starred   bool      `json:"starred"`
	CreatedAt time.Time `json:"createdAt"`
}

// List is the synchronized unit.
type List struct {
	ID        identity.ID `json:"id"`
	Title     string      `json:"title"`
	Tasks     []Task      `json:"tasks"`
	Theme     string      `json:"theme"`
	CreatedAt time.Time   `json:"createdAt"`

	// UpdatedAt is computed by the server; zero for lists never synced.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`

	// Pending is set on a durable list whose latest local edit has not
	// reached the server yet. It is local state and never sent.
	Pending bool `json:"pending,omitempty"`
}

// NeedsSync reports whether the list has local changes the server lacks.
func (l List) NeedsSync() bool {
	return l.ID.IsProvisional() || l.Pending
}

// NewList returns a list without an identifier. The sync engine assigns a
// provisional one on the first save.
func NewList(title string, now time.Time) List {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	return List{
		Title:     title,
		Tasks:     []Task{},
		Theme:     DefaultTheme,
		CreatedAt: now.UTC(),
	}
}

// NewTask returns an open, unstarred task with a locally generated identifier.
func NewTask(text string, now time.Time) Task {
	return Task{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		CreatedAt: now.UTC(),
	}
}

// Clone returns a deep copy so callers can edit tasks without aliasing.
func (l List) Clone() List {
	c := l
	c.Tasks = make([]Task, len(l.Tasks))
	copy(c.Tasks, l.Tasks)
	return c
}

// OpenCount returns the number of tasks not yet completed.
func (l List) OpenCount() int {
	n := 0
	for _, t := range l.Tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

// OrderedTasks returns tasks in display order: open tasks with starred ones
// first, then completed tasks. Relative order is otherwise preserved.
func (l List) OrderedTasks() []Task {
	order := l.DisplayOrder()
	out := make([]Task, len(order))
	for i, idx := range order {
		out[i] = l.Tasks[idx]
	}
	return out
}

// DisplayOrder returns indexes into Tasks in the order OrderedTasks uses.
func (l List) DisplayOrder() []int {
	var open, done []int
	for i, t := range l.Tasks {
		if t.Completed {
			done = append(done, i)
		} else {
			open = append(open, i)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return l.Tasks[open[i]].Starred && !l.Tasks[open[j]].Starred
	})
	return append(open, done...)
}

// TaskIndex returns the position of the task with the given id, or -1.
func (l List) TaskIndex(taskID string) int {
	for i, t := range l.Tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}
