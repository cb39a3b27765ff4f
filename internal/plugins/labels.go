// internal/plugins/labels.go
package plugins

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Annany2002/taxacurator/internal/domain"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatAuthors renders an authority as "A", "A & B" or "A, B & C" in author order.
func FormatAuthors(links []domain.AuthorLink) string {
	sorted := append([]domain.AuthorLink(nil), links...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	var names []string
	for _, l := range sorted {
		if l.LastName != "" {
			names = append(names, l.LastName)
		}
	}
	switch len(names) {
	case 0:
		return "—"
	case 1:
		return names[0]
	case 2:
		return names[0] + " & " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + " & " + names[len(names)-1]
}

// RepositoryLabel renders "ACR — Name (City, Country)".
func RepositoryLabel(acronym, name, city, country string) string {
	parts := joinNonEmpty(" — ", acronym, name)
	loc := joinNonEmpty(", ", city, country)
	if loc == "" {
		return parts
	}
	return fmt.Sprintf("%s (%s)", parts, loc)
}

// PublicationLabel renders "[id] title (year) — journal vol(num): page".
// A nil publication renders as "—".
func PublicationLabel(pub domain.Record, journal string) string {
	if pub == nil {
		return "—"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", pub.String("id"), pub.String("title_english"))
	if year := PublicationYear(pub.String("publication_date")); year != "" {
		fmt.Fprintf(&b, " (%s)", year)
	}
	if journal != "" {
		b.WriteString(" — " + journal)
		if v := pub.String("volume"); v != "" {
			b.WriteString(" " + v)
		}
		if n := pub.String("number"); n != "" {
			b.WriteString("(" + n + ")")
		}
		if p := pub.String("page"); p != "" {
			b.WriteString(": " + p)
		}
	}
	return b.String()
}

// PublicationYear extracts the year of a publication date.
func PublicationYear(date string) string {
	if t, ok := parseTimestamp(date); ok {
		return fmt.Sprintf("%04d", t.Year())
	}
	if len(date) >= 4 && isDigits(date[:4]) {
		return date[:4]
	}
	return ""
}

// FormatTimestamp renders a stored timestamp as "2006/01/02 15:04" (UTC).
// Unparseable text is returned as is.
func FormatTimestamp(raw string) string {
	if raw == "" {
		return ""
	}
	t, ok := parseTimestamp(raw)
	if !ok {
		return raw
	}
	return t.UTC().Format("2006/01/02 15:04")
}

// StripTags replaces markup tags with spaces.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

// PersonLabel renders "Last, First".
func PersonLabel(last, first string) string {
	return joinNonEmpty(", ", last, first)
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
