// internal/console/list.go
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/Annany2002/taxacurator/internal/core"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// FallbackOrderColumn orders the generic query when the requested column is
// rejected by the gateway.
const FallbackOrderColumn = "created_at"

// ListParams are the inputs of one list request.
type ListParams struct {
	Page      int
	PageSize  int
	SortModel []SortItem
	Search    string
}

// ListResult is the output of List. Rows are empty and Total is zero on any error.
type ListResult[T any] struct {
	Rows    []T
	Total   int
	Loading bool
	Source  string
	Err     error
}

// ResolveWindow applies the first sort model entry, or the plugin default.
func ResolveWindow(params ListParams, def SortItem) Window {
	w := Window{
		Page:     max(params.Page, 0),
		PageSize: params.PageSize,
		Search:   params.Search,
	}
	if w.PageSize <= 0 {
		w.PageSize = core.DefaultPageSize
	}
	sortItem := def
	if len(params.SortModel) > 0 && params.SortModel[0].Field != "" {
		sortItem = params.SortModel[0]
	}
	w.OrderBy = sortItem.Field
	w.Ascending = sortItem.Sort != SortDesc
	return w
}

// List resolves one page of rows for plugin. It delegates to the plugin's
// Fetch when present, otherwise it runs the generic paged query.
func List[T domain.Row](ctx context.Context, gw gateway.Gateway, plugin *Plugin[T], params ListParams) ListResult[T] {
	w := ResolveWindow(params, plugin.DefaultSort)

	if plugin.Fetch != nil {
		res, err := plugin.Fetch(ctx, gw, w)
		if err != nil {
			customLog.Warnf("Console[%s]: fetch failed: %v", plugin.Name, err)
			return ListResult[T]{Rows: []T{}, Err: err}
		}
		rows := res.Rows
		if rows == nil {
			rows = []T{}
		}
		return ListResult[T]{Rows: rows, Total: res.Total, Source: res.Source}
	}

	rows, total, err := genericList(ctx, gw, plugin, w)
	if err != nil {
		customLog.Warnf("Console[%s]: list failed: %v", plugin.Name, err)
		return ListResult[T]{Rows: []T{}, Err: err}
	}
	return ListResult[T]{Rows: rows, Total: total, Source: "table"}
}

func genericList[T domain.Row](ctx context.Context, gw gateway.Gateway, plugin *Plugin[T], w Window) ([]T, int, error) {
	if plugin.Decode == nil {
		return nil, 0, fmt.Errorf("%w: %s has no decoder", ErrInvalidPlugin, plugin.Name)
	}

	records, count, err := SelectWindow(ctx, gw, plugin.Table, plugin.Select, plugin.SearchFilter(w.Search), w)
	if err != nil {
		return nil, 0, err
	}
	if plugin.Hydrate != nil {
		records = plugin.Hydrate(ctx, gw, records)
	}

	rows := make([]T, 0, len(records))
	for _, rec := range records {
		row, err := plugin.Decode(rec)
		if err != nil {
			return nil, 0, fmt.Errorf("decoding %s row: %w", plugin.Table, err)
		}
		rows = append(rows, plugin.NormalizeRow(row))
	}
	if plugin.SearchLocal != nil && w.Search != "" {
		rows = plugin.SearchLocal(rows, w.Search)
	}

	total := len(rows)
	if count != nil {
		total = *count
	}
	return rows, total, nil
}

// SelectWindow runs a paged, counted query for w. If the gateway rejects the
// order column, the query is reissued once ordered by created_at descending.
func SelectWindow(ctx context.Context, gw gateway.Gateway, table, sel string, or []gateway.Match, w Window) ([]domain.Record, *int, error) {
	q := gateway.Query{
		Table:  table,
		Select: sel,
		Or:     or,
		Range:  w.Range(),
		Count:  true,
	}
	if w.OrderBy != "" {
		q.Order = []gateway.Order{{Column: w.OrderBy, Ascending: w.Ascending}}
	}

	res, err := gw.Select(ctx, q)
	if errors.Is(err, gateway.ErrColumnNotFound) && w.OrderBy != "" && w.OrderBy != FallbackOrderColumn {
		customLog.Warnf("Console: order fallback on %s: %q -> %s desc", table, w.OrderBy, FallbackOrderColumn)
		q.Order = []gateway.Order{{Column: FallbackOrderColumn, Ascending: false}}
		res, err = gw.Select(ctx, q)
	}
	if err != nil {
		return nil, nil, err
	}
	return res.Rows, res.Count, nil
}
