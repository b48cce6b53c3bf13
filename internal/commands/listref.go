package commands

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"todosync/internal/service"
)

var (
	// ErrListRefRequired indicates no list reference was provided.
	ErrListRefRequired = errors.New("list reference required")

	// ErrTaskNumRequired indicates no task number was provided.
	ErrTaskNumRequired = errors.New("task number required")

	// ErrListNotFound marks lookups that matched nothing.
	ErrListNotFound = errors.New("list not found")

	// ErrAmbiguousList marks title lookups that matched more than one list.
	ErrAmbiguousList = errors.New("ambiguous list name")
)

// FindList resolves a list reference against lists.
//
// Resolution order:
// 1. All digits and within range → the 1-based position printed by `lists`
// 2. Exact identifier match (durable or provisional)
// 3. Case-insensitive, trimmed title match; more than one match is ambiguous
func FindList(lists []service.List, ref string) (service.List, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return service.List{}, ErrListRefRequired
	}

	if isAllDigits(ref) {
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(lists) {
			return lists[n-1], nil
		}
	}

	for _, l := range lists {
		if l.ID.String() == ref {
			return l, nil
		}
	}

	refLower := strings.ToLower(ref)
	var matches []service.List
	for _, l := range lists {
		if strings.ToLower(strings.TrimSpace(l.Title)) == refLower {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return service.List{}, errors.Mark(errors.Newf("list not found: %s", ref), ErrListNotFound)
	case 1:
		return matches[0], nil
	default:
		return service.List{}, errors.Mark(errors.Newf("ambiguous list name: %s", ref), ErrAmbiguousList)
	}
}

// ParseTaskNum parses the 1-based task number printed by `show`.
func ParseTaskNum(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskNumRequired
	}
	if !isAllDigits(args[0]) {
		return 0, errors.Newf("invalid task number: %s", args[0])
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, errors.Newf("task number out of range: %s", args[0])
	}
	return n, nil
}

// TaskAt maps a 1-based display number to an index into l.Tasks.
func TaskAt(l service.List, num int) (int, error) {
	order := l.DisplayOrder()
	if num < 1 || num > len(order) {
		return 0, errors.Newf("task number out of range: %d", num)
	}
	return order[num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
