// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todosync/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// PendingMark flags lists the server has not assigned an identifier yet.
	PendingMark = " [pending]"

	// StarMark follows the text of a starred task.
	StarMark = " *"
)

// FormatListLine formats a row of the lists command.
// Format: "{N:>4}  {TITLE}  ({OPEN}/{TOTAL})[ [pending]]\n"
func FormatListLine(w io.Writer, num int, l service.List) {
	fmt.Fprintf(w, "%4d  %s  (%d/%d)%s\n", num, normalizeListTitle(l.Title), l.OpenCount(), len(l.Tasks), pendingSuffix(l))
}

// FormatListHeader formats a list section header.
func FormatListHeader(w io.Writer, l service.List) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, normalizeListTitle(l.Title)+pendingSuffix(l))
	fmt.Fprintln(w, ListSeparator)
}

// FormatTask formats a task line inside a list section.
// Format: "{N:>4}  [x] {TEXT}[ *]\n"
func FormatTask(w io.Writer, num int, t service.Task) {
	check := " "
	if t.Completed {
		check = "x"
	}
	star := ""
	if t.Starred {
		star = StarMark
	}
	fmt.Fprintf(w, "%4d  [%s] %s%s\n", num, check, normalizeText(t.Text), star)
}

// FormatList prints a header followed by the tasks in display order.
func FormatList(w io.Writer, l service.List) {
	FormatListHeader(w, l)
	for i, t := range l.OrderedTasks() {
		FormatTask(w, i+1, t)
	}
}

func pendingSuffix(l service.List) string {
	if l.NeedsSync() {
		return PendingMark
	}
	return ""
}

// normalizeText normalizes a task text for display.
// - Empty or whitespace-only texts become "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
