// internal/plugins/repositories.go
package plugins

import (
	"context"
	"fmt"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

const repositorySelect = "uuid, acronym, name_en, taxapad_code, country, city, parent_id, created_at"

var repositorySortKeys = map[string]func(domain.Repository) string{
	"acronym":      func(r domain.Repository) string { return r.Acronym },
	"name":         func(r domain.Repository) string { return r.Name },
	"taxapad_code": func(r domain.Repository) string { return r.TaxapadCode },
	"country":      func(r domain.Repository) string { return r.Country },
	"city":         func(r domain.Repository) string { return r.City },
	"id":           func(r domain.Repository) string { return r.UUID },
	"uuid":         func(r domain.Repository) string { return r.UUID },
}

// Repositories lists specimen repositories with their parent (valid) institution.
// Rows come from the search_repositories procedure, or from a table read with
// parents resolved by a second query when the procedure is unavailable.
func Repositories() *console.Plugin[domain.Repository] {
	p := &console.Plugin[domain.Repository]{
		Name:        RepositoriesConsole,
		Table:       "Repositories",
		Select:      repositorySelect,
		DefaultSort: console.SortItem{Field: "acronym", Sort: console.SortAsc},
		Or: func(search string) []gateway.Match {
			return gateway.ContainsAny(search, "acronym", "name_en", "taxapad_code")
		},
		Decode:    decodeRecord[domain.Repository],
		Normalize: normalizeRepository,
		Columns:   repositoryColumns,
	}
	chain := console.Chain[domain.Record]{
		Console: p.Name,
		Strategies: []console.Strategy[domain.Record]{
			{Name: "rpc", Fetch: repositoriesByRPC},
			{Name: "table", Fetch: func(ctx context.Context, gw gateway.Gateway, _ console.Window) (console.FetchResult[domain.Record], error) {
				return repositoriesByTable(ctx, gw, p)
			}},
		},
	}
	p.Fetch = func(ctx context.Context, gw gateway.Gateway, w console.Window) (console.FetchResult[domain.Repository], error) {
		base, _, err := chain.Fetch(ctx, gw, w)
		if err != nil {
			return console.FetchResult[domain.Repository]{}, err
		}

		rows := make([]domain.Repository, 0, len(base.Rows))
		for _, rec := range base.Rows {
			r, err := p.Decode(rec)
			if err != nil {
				return console.FetchResult[domain.Repository]{}, err
			}
			rows = append(rows, p.NormalizeRow(r))
		}
		rows = console.FilterRows(rows, w.Search, func(r domain.Repository) []string {
			return []string{r.Acronym, r.Name, r.TaxapadCode, r.Country, r.City, r.ParentDisplay}
		})
		key, ok := repositorySortKeys[w.OrderBy]
		if !ok {
			key = repositorySortKeys["acronym"]
		}
		console.SortRows(rows, key, w.Ascending)

		return console.FetchResult[domain.Repository]{
			Rows:   console.Paginate(rows, w),
			Total:  len(rows),
			Paged:  true,
			Source: base.Source,
		}, nil
	}
	return p
}

func repositoriesByRPC(ctx context.Context, gw gateway.Gateway, w console.Window) (console.FetchResult[domain.Record], error) {
	data, err := gw.RPC(ctx, "search_repositories", map[string]any{"search_term": w.Search})
	if err != nil {
		return console.FetchResult[domain.Record]{}, err
	}
	base := make([]domain.Record, 0, len(data))
	for _, r := range data {
		row := domain.Record{
			"uuid":         r["uuid"],
			"acronym":      r["acronym"],
			"name_en":      r["name_en"],
			"taxapad_code": r["taxapad_code"],
			"country":      r["country"],
			"city":         r["city"],
			"parent_id":    firstText(r.String("parent_uuid"), r.String("parent_id"), r.String("uuid")),
		}
		switch {
		case r.String("parent_uuid") != "":
			row["_parent"] = map[string]any{"uuid": r["parent_uuid"], "acronym": r["parent_acronym"], "name_en": r["parent_name_en"]}
		case !r.Bool("is_synonym"):
			row["_parent"] = map[string]any{"uuid": r["uuid"], "acronym": r["acronym"], "name_en": r["name_en"]}
		}
		base = append(base, row)
	}
	return console.FetchResult[domain.Record]{Rows: base, Total: len(base)}, nil
}

func repositoriesByTable(ctx context.Context, gw gateway.Gateway, p *console.Plugin[domain.Repository]) (console.FetchResult[domain.Record], error) {
	base, err := gateway.SelectAll(ctx, gw, gateway.Query{
		Table:  p.Table,
		Select: p.Select,
		Order:  []gateway.Order{{Column: "acronym", Ascending: true}},
	}, allChunk)
	if err != nil {
		return console.FetchResult[domain.Record]{}, fmt.Errorf("fetching repositories: %w", err)
	}

	var parentIDs []string
	for _, r := range base {
		parentIDs = append(parentIDs, r.String("parent_id"))
	}
	if len(uniq(parentIDs)) > 0 {
		parents, err := selectIn(ctx, gw, p.Table, "uuid, acronym, name_en", "uuid", parentIDs)
		if err != nil {
			customLog.Warnf("Console[%s]: parent lookup failed (ignored): %v", p.Name, err)
		} else {
			byID := indexBy(parents, "uuid")
			for _, r := range base {
				if parent, ok := byID[r.String("parent_id")]; ok {
					r["_parent"] = map[string]any(parent)
				}
			}
		}
	}
	return console.FetchResult[domain.Record]{Rows: base, Total: len(base)}, nil
}

func normalizeRepository(r domain.Repository) domain.Repository {
	r.ID = r.UUID
	r.Name = orDash(firstText(r.NameEn, r.Acronym))
	r.IsSynonym = r.UUID != "" && domain.Deref(r.ParentID) != "" && r.UUID != *r.ParentID
	r.ParentDisplay = ""
	if r.Parent != nil {
		r.ParentDisplay = joinNonEmpty(" — ", r.Parent.Acronym, r.Parent.NameEn)
	}
	return r
}

// RepositoryOptionLabel renders a repository for selectors.
func RepositoryOptionLabel(r domain.Record) string {
	return RepositoryLabel(r.String("acronym"), r.String("name_en"), r.String("city"), r.String("country"))
}

func repositoryColumns(onEdit func(domain.Repository) string) []console.Column[domain.Repository] {
	return []console.Column[domain.Repository]{
		console.ActionsColumn(onEdit),
		{Field: "uuid", Header: "ID", Width: 260, Sortable: true, Value: func(r domain.Repository) string { return r.UUID }},
		{Field: "acronym", Header: "Acronym", Width: 160, Sortable: true, Value: func(r domain.Repository) string { return orDash(r.Acronym) }},
		{Field: "name", Header: "Official Name (English)", Width: 260, Sortable: true, Value: func(r domain.Repository) string { return r.Name }},
		{Field: "taxapad_code", Header: "Taxapad Code", Width: 140, Sortable: true, Value: func(r domain.Repository) string { return r.TaxapadCode }},
		{Field: "country", Header: "Country", Width: 140, Sortable: true, Value: func(r domain.Repository) string { return r.Country }},
		{Field: "city", Header: "City", Width: 140, Sortable: true, Value: func(r domain.Repository) string { return r.City }},
		{Field: "status", Header: "Status", Width: 120, Value: func(r domain.Repository) string {
			if r.IsSynonym {
				return "Synonym"
			}
			return "Valid Name"
		}},
		{Field: "valid_name", Header: "Valid Name", Width: 240, Value: func(r domain.Repository) string {
			if !r.IsSynonym {
				return "—"
			}
			return orDash(r.ParentDisplay)
		}},
	}
}
