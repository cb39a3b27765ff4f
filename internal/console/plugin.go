// internal/console/plugin.go
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/logger"
)

var customLog = logger.NewLogger()

// ActionsField is the field name of the non-sortable edit column.
const ActionsField = "__actions"

// Sort directions of a SortItem.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

var (
	ErrInvalidPlugin  = errors.New("invalid console plugin")
	ErrUnknownConsole = errors.New("unknown console")
)

// SortItem is one entry of a sort model. Only the first entry is honoured.
type SortItem struct {
	Field string `json:"field"`
	Sort  string `json:"sort"`
}

// Window is one resolved list request.
type Window struct {
	Page      int
	PageSize  int
	OrderBy   string
	Ascending bool
	Search    string
}

// From is the offset of the first row of the window.
func (w Window) From() int { return w.Page * w.PageSize }

// To is the inclusive offset of the last row of the window.
func (w Window) To() int { return w.From() + w.PageSize - 1 }

// Range is the gateway range covering the window.
func (w Window) Range() *gateway.Range {
	return &gateway.Range{From: w.From(), To: w.To()}
}

// FetchResult is what a plugin fetch or a strategy returns.
type FetchResult[T any] struct {
	Rows  []T
	Total int
	// Paged is set when Rows already holds only the requested window.
	Paged bool
	// Source names the strategy that produced the rows.
	Source string
}

// Column describes one displayed field.
type Column[T any] struct {
	Field    string
	Header   string
	Width    int
	Sortable bool
	Value    func(T) string
}

// Plugin binds one table to its fetch, search, normalisation and display behaviour.
type Plugin[T domain.Row] struct {
	Name        string
	Table       string
	Select      string
	DefaultSort SortItem

	// Or builds the disjunctive search filter. It returns nil for an empty term.
	Or func(search string) []gateway.Match

	// Fetch, when set, owns querying, hydration, search, sort and paging.
	// Rows it returns are already normalised.
	Fetch func(ctx context.Context, gw gateway.Gateway, w Window) (FetchResult[T], error)

	// Hydrate enriches raw rows of the generic path through secondary queries.
	Hydrate func(ctx context.Context, gw gateway.Gateway, rows []domain.Record) []domain.Record

	Decode      func(domain.Record) (T, error)
	Normalize   func(T) T
	SearchLocal func(rows []T, search string) []T
	Columns     func(onEdit func(T) string) []Column[T]
}

// Validate checks the static invariants of a plugin descriptor.
func (p *Plugin[T]) Validate() error {
	if p.Name == "" || p.Table == "" {
		return fmt.Errorf("%w: name and table are required", ErrInvalidPlugin)
	}
	if p.DefaultSort.Field == "" {
		return fmt.Errorf("%w: %s has no default sort", ErrInvalidPlugin, p.Name)
	}
	if p.Fetch == nil && p.Decode == nil {
		return fmt.Errorf("%w: %s needs Fetch or Decode", ErrInvalidPlugin, p.Name)
	}
	if p.Columns == nil {
		return fmt.Errorf("%w: %s has no columns", ErrInvalidPlugin, p.Name)
	}
	var hasID, hasActions bool
	for _, c := range p.Columns(nil) {
		switch c.Field {
		case "id", "uuid":
			hasID = true
		case ActionsField:
			hasActions = !c.Sortable
		}
	}
	if !hasID || !hasActions {
		return fmt.Errorf("%w: %s must declare an identifier and a non-sortable actions column", ErrInvalidPlugin, p.Name)
	}
	return nil
}

// SearchFilter returns the plugin's filter for search, or nil.
func (p *Plugin[T]) SearchFilter(search string) []gateway.Match {
	if p.Or == nil || search == "" {
		return nil
	}
	return p.Or(search)
}

// NormalizeRow applies Normalize, returning row unchanged if it panics.
func (p *Plugin[T]) NormalizeRow(row T) (out T) {
	if p.Normalize == nil {
		return row
	}
	defer func() {
		if r := recover(); r != nil {
			customLog.Warnf("Console[%s]: normalize failed for row %s: %v", p.Name, row.RowID(), r)
			out = row
		}
	}()
	return p.Normalize(row)
}

// ActionsColumn is the edit column every plugin declares first.
func ActionsColumn[T domain.Row](onEdit func(T) string) Column[T] {
	return Column[T]{
		Field:  ActionsField,
		Header: "Actions",
		Width:  96,
		Value: func(row T) string {
			if onEdit == nil {
				return ""
			}
			return onEdit(row)
		},
	}
}
