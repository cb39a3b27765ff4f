// internal/console/text.go
package console

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold canonicalises text for searching: NFKC, lower case, single spaces.
func Fold(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// ContainsFold reports whether any field contains search after folding.
// An empty search matches everything.
func ContainsFold(search string, fields ...string) bool {
	q := Fold(search)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(f), q) {
			return true
		}
	}
	return false
}

// FilterRows keeps the rows whose fields contain search.
func FilterRows[T any](rows []T, search string, fields func(T) []string) []T {
	if Fold(search) == "" {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if ContainsFold(search, fields(r)...) {
			out = append(out, r)
		}
	}
	return out
}

// SortRows orders rows by key using locale-aware collation. Rows with equal
// keys keep their relative order.
func SortRows[T any](rows []T, key func(T) string, ascending bool) {
	c := collate.New(language.Und, collate.IgnoreCase)
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = key(r)
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		cmp := c.CompareString(keys[idx[a]], keys[idx[b]])
		if ascending {
			return cmp < 0
		}
		return cmp > 0
	})
	sorted := make([]T, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}

// BoolKey renders a boolean as a sort key where false sorts first.
func BoolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Paginate returns the rows of the window.
func Paginate[T any](rows []T, w Window) []T {
	from := w.From()
	if from >= len(rows) || from < 0 {
		return []T{}
	}
	to := min(from+w.PageSize, len(rows))
	return rows[from:to]
}
