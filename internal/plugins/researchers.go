// internal/plugins/researchers.go
package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

var researcherSortKeys = map[string]func(domain.Researcher) string{
	"name":    func(r domain.Researcher) string { return r.Name },
	"orcid":   func(r domain.Researcher) string { return r.Orcid },
	"aliases": func(r domain.Researcher) string { return r.AliasesText },
	"id":      func(r domain.Researcher) string { return r.ID },
}

// Researchers lists people with their aliases. The search_researchers
// procedure returns every match; the table fallback returns one page at a time.
func Researchers() *console.Plugin[domain.Researcher] {
	p := &console.Plugin[domain.Researcher]{
		Name:        ResearchersConsole,
		Table:       "researchers",
		Select:      "id, first_name, last_name, orcid",
		DefaultSort: console.SortItem{Field: "name", Sort: console.SortAsc},
		Decode:      DecodeResearcher,
		Normalize:   normalizeResearcher,
		Columns:     researcherColumns,
	}
	chain := console.Chain[domain.Record]{
		Console: p.Name,
		Strategies: []console.Strategy[domain.Record]{
			{Name: "rpc", Fetch: researchersByRPC},
			{Name: "table", Fetch: func(ctx context.Context, gw gateway.Gateway, w console.Window) (console.FetchResult[domain.Record], error) {
				return researchersByTable(ctx, gw, p, w)
			}},
		},
	}
	p.Fetch = func(ctx context.Context, gw gateway.Gateway, w console.Window) (console.FetchResult[domain.Researcher], error) {
		base, _, err := chain.Fetch(ctx, gw, w)
		if err != nil {
			return console.FetchResult[domain.Researcher]{}, err
		}

		rows := make([]domain.Researcher, 0, len(base.Rows))
		for _, rec := range base.Rows {
			r, err := p.Decode(rec)
			if err != nil {
				return console.FetchResult[domain.Researcher]{}, err
			}
			rows = append(rows, p.NormalizeRow(r))
		}
		rows = console.FilterRows(rows, w.Search, func(r domain.Researcher) []string {
			return []string{researcherName(r), r.Orcid, strings.Join(r.Aliases, ", ")}
		})
		key, ok := researcherSortKeys[w.OrderBy]
		if !ok {
			key = researcherSortKeys["name"]
		}
		console.SortRows(rows, key, w.Ascending)

		if base.Paged {
			return console.FetchResult[domain.Researcher]{Rows: rows, Total: base.Total, Paged: true, Source: base.Source}, nil
		}
		return console.FetchResult[domain.Researcher]{
			Rows:   console.Paginate(rows, w),
			Total:  len(rows),
			Paged:  true,
			Source: base.Source,
		}, nil
	}
	return p
}

func researchersByRPC(ctx context.Context, gw gateway.Gateway, w console.Window) (console.FetchResult[domain.Record], error) {
	data, err := gw.RPC(ctx, "search_researchers", map[string]any{"search_term": w.Search})
	if err != nil {
		return console.FetchResult[domain.Record]{}, err
	}
	return console.FetchResult[domain.Record]{Rows: data, Total: len(data)}, nil
}

func researchersByTable(ctx context.Context, gw gateway.Gateway, p *console.Plugin[domain.Researcher], w console.Window) (console.FetchResult[domain.Record], error) {
	res, err := gw.Select(ctx, gateway.Query{
		Table:  p.Table,
		Select: p.Select,
		Order:  []gateway.Order{{Column: "id", Ascending: true}},
		Range:  w.Range(),
		Count:  true,
	})
	if err != nil {
		return console.FetchResult[domain.Record]{}, fmt.Errorf("fetching researchers: %w", err)
	}
	base := res.Rows
	total := len(base)
	if res.Count != nil {
		total = *res.Count
	}

	if len(base) > 0 {
		ids := make([]string, 0, len(base))
		for _, r := range base {
			ids = append(ids, r.String("id"))
		}
		aliases, err := selectIn(ctx, gw, "researcher_aliases", "*", "researcher_id", ids)
		if err != nil {
			return console.FetchResult[domain.Record]{}, fmt.Errorf("merging researcher aliases: %w", err)
		}
		byResearcher := groupBy(aliases, "researcher_id")
		for _, r := range base {
			merged := make([]any, 0, len(byResearcher[r.String("id")]))
			for _, a := range byResearcher[r.String("id")] {
				merged = append(merged, map[string]any(a))
			}
			r["researcher_aliases"] = merged
		}
	}
	return console.FetchResult[domain.Record]{Rows: base, Total: total, Paged: true}, nil
}

// DecodeResearcher maps a researcher row with its embedded aliases.
func DecodeResearcher(r domain.Record) (domain.Researcher, error) {
	if r.String("id") == "" {
		return domain.Researcher{}, fmt.Errorf("researcher row without id")
	}
	out := domain.Researcher{
		ID:        r.String("id"),
		FirstName: r.String("first_name"),
		LastName:  r.String("last_name"),
		Orcid:     r.String("orcid"),
		Aliases:   []string{},
	}
	for _, a := range r.Records("researcher_aliases") {
		alias := firstText(a.String("alias_name"), a.String("name"), PersonLabel(a.String("last_name"), a.String("first_name")))
		if alias != "" {
			out.Aliases = append(out.Aliases, alias)
		}
	}
	return out, nil
}

func researcherName(r domain.Researcher) string {
	return PersonLabel(r.LastName, r.FirstName)
}

func normalizeResearcher(r domain.Researcher) domain.Researcher {
	r.Name = orDash(researcherName(r))
	r.AliasesText = orDash(strings.Join(r.Aliases, ", "))
	return r
}

func researcherColumns(onEdit func(domain.Researcher) string) []console.Column[domain.Researcher] {
	return []console.Column[domain.Researcher]{
		console.ActionsColumn(onEdit),
		{Field: "id", Header: "ID", Width: 250, Sortable: true, Value: func(r domain.Researcher) string { return r.ID }},
		{Field: "name", Header: "Name", Width: 220, Sortable: true, Value: func(r domain.Researcher) string { return r.Name }},
		{Field: "orcid", Header: "ORCID", Width: 200, Sortable: true, Value: func(r domain.Researcher) string {
			if r.Orcid == "" {
				return "—"
			}
			return "https://orcid.org/" + r.Orcid
		}},
		{Field: "aliases", Header: "Aliases", Width: 260, Value: func(r domain.Researcher) string { return r.AliasesText }},
	}
}
