// internal/gateway/gateway.go
package gateway

import (
	"context"
	"errors"

	"github.com/Annany2002/taxacurator/internal/domain"
)

// Errors reported by every Gateway implementation.
var (
	ErrTableNotFound       = errors.New("table not found")
	ErrColumnNotFound      = errors.New("column not found")
	ErrRecordNotFound      = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrTypeMismatch        = errors.New("datatype mismatch")
	ErrInvalidIdentifier   = errors.New("invalid identifier")
	ErrUnsupportedSelect   = errors.New("unsupported select expression")
	ErrUnknownProcedure    = errors.New("unknown remote procedure")
	ErrMissingFilter       = errors.New("mutation requires at least one filter")
	ErrGateway             = errors.New("gateway request failed")
)

// Match is one arm of a disjunctive "column contains term" filter.
type Match struct {
	Column string
	Term   string
}

// Filter is an equality predicate. A nil Value matches NULL.
type Filter struct {
	Column string
	Value  any
}

// InFilter restricts Column to one of Values.
type InFilter struct {
	Column string
	Values []any
}

// Order is one ordering term. ReferencedTable scopes it to an embedded relation.
type Order struct {
	Column          string
	Ascending       bool
	ReferencedTable string
}

// Range is an inclusive row window, [From, To].
type Range struct {
	From int
	To   int
}

// Query describes one table read.
type Query struct {
	Table  string
	Select string
	Or     []Match
	Eq     []Filter
	In     []InFilter
	Order  []Order
	Range  *Range
	Count  bool
}

// Result carries the rows of a Select and, when requested, the unpaged count.
type Result struct {
	Rows  []domain.Record
	Count *int
}

// Gateway is the remote relational store used by every console and dialog.
type Gateway interface {
	Select(ctx context.Context, q Query) (Result, error)
	Insert(ctx context.Context, table string, rows ...domain.Record) ([]domain.Record, error)
	Update(ctx context.Context, table string, patch domain.Record, filters ...Filter) (int64, error)
	Delete(ctx context.Context, table string, filters ...Filter) (int64, error)
	RPC(ctx context.Context, name string, params map[string]any) ([]domain.Record, error)
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// In builds a membership filter from string ids.
func In(column string, ids []string) InFilter {
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	return InFilter{Column: column, Values: values}
}

// ContainsAny builds one Match per column for term.
func ContainsAny(term string, columns ...string) []Match {
	if term == "" {
		return nil
	}
	out := make([]Match, 0, len(columns))
	for _, c := range columns {
		out = append(out, Match{Column: c, Term: term})
	}
	return out
}

// IsCapabilityError reports whether err means the gateway cannot express the
// request at all, as opposed to a transient failure.
func IsCapabilityError(err error) bool {
	return errors.Is(err, ErrUnknownProcedure) ||
		errors.Is(err, ErrUnsupportedSelect) ||
		errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrTableNotFound)
}

// SelectAll pages through a table in chunks until a short page is returned.
func SelectAll(ctx context.Context, gw Gateway, q Query, chunk int) ([]domain.Record, error) {
	if chunk <= 0 {
		chunk = 1000
	}
	var all []domain.Record
	for from := 0; ; from += chunk {
		page := q
		page.Count = false
		page.Range = &Range{From: from, To: from + chunk - 1}
		res, err := gw.Select(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Rows...)
		if len(res.Rows) < chunk {
			break
		}
	}
	return all, nil
}
