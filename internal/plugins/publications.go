// internal/plugins/publications.go
package plugins

import (
	"context"
	"sort"
	"strings"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

const publicationSelect = `
	id, publication_type, publication_date, title_english, title_original,
	journal_id, volume, number, page, doi, is_open_access,
	scientific_name_status, taxonomic_act_status, distribution_status, ecological_data_status`

// Publications lists publications through the generic paged query, hydrating
// journals and ordered authors, then narrows matches on the tag-stripped text.
func Publications() *console.Plugin[domain.Publication] {
	return &console.Plugin[domain.Publication]{
		Name:        PublicationsConsole,
		Table:       "publications",
		Select:      publicationSelect,
		DefaultSort: console.SortItem{Field: "publication_date", Sort: console.SortDesc},
		Or: func(search string) []gateway.Match {
			return gateway.ContainsAny(search, "id", "title_english", "title_original", "doi")
		},
		Hydrate:     hydratePublications,
		Decode:      decodeRecord[domain.Publication],
		Normalize:   normalizePublication,
		SearchLocal: searchPublications,
		Columns:     publicationColumns,
	}
}

func hydratePublications(ctx context.Context, gw gateway.Gateway, rows []domain.Record) []domain.Record {
	if len(rows) == 0 {
		return rows
	}
	journals := loadJournalNames(ctx, gw, rows)

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.String("id"))
	}
	links, err := selectIn(ctx, gw, "publications_authors", "publication_id, researcher_id, author_order", "publication_id", ids)
	if err != nil {
		customLog.Warnf("Console[%s]: author links unavailable: %v", PublicationsConsole, err)
	}
	var researcherIDs []string
	for _, l := range links {
		researcherIDs = append(researcherIDs, l.String("researcher_id"))
	}
	var people map[string]domain.Record
	if len(researcherIDs) > 0 {
		found, err := selectIn(ctx, gw, "researchers", "id, last_name, first_name", "id", researcherIDs)
		if err != nil {
			customLog.Warnf("Console[%s]: researchers unavailable: %v", PublicationsConsole, err)
		}
		people = indexBy(found, "id")
	}
	byPublication := groupBy(links, "publication_id")

	out := make([]domain.Record, 0, len(rows))
	for _, r := range rows {
		h := r.Clone()
		h["journalName"] = journals[r.String("journal_id")]

		pubLinks := byPublication[r.String("id")]
		sort.SliceStable(pubLinks, func(i, j int) bool {
			a, _ := pubLinks[i].Int("author_order")
			b, _ := pubLinks[j].Int("author_order")
			return a < b
		})
		authors := make([]any, 0, len(pubLinks))
		for _, l := range pubLinks {
			person, ok := people[l.String("researcher_id")]
			if !ok {
				continue
			}
			authors = append(authors, map[string]any{
				"id":         person.String("id"),
				"last_name":  person.String("last_name"),
				"first_name": person.String("first_name"),
			})
		}
		h["authors"] = authors
		out = append(out, h)
	}
	return out
}

func normalizePublication(p domain.Publication) domain.Publication {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if n := PersonLabel(a.LastName, a.FirstName); n != "" {
			names = append(names, n)
		}
	}
	p.AuthorsText = strings.Join(names, "; ")
	p.TitleEnglishText = StripTags(p.TitleEnglish)
	p.TitleOriginalText = StripTags(p.TitleOriginal)
	return p
}

func searchPublications(rows []domain.Publication, search string) []domain.Publication {
	needle := strings.ToLower(search)
	if needle == "" {
		return rows
	}
	out := make([]domain.Publication, 0, len(rows))
	for _, r := range rows {
		for _, field := range []string{r.ID, domain.Deref(r.DOI), r.TitleEnglishText, r.TitleOriginalText, r.JournalName, r.AuthorsText} {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func publicationStatus(v *string) string {
	return orDash(domain.Deref(v))
}

func publicationColumns(onEdit func(domain.Publication) string) []console.Column[domain.Publication] {
	return []console.Column[domain.Publication]{
		console.ActionsColumn(onEdit),
		{Field: "id", Header: "ID", Width: 220, Sortable: true, Value: func(p domain.Publication) string { return p.ID }},
		{Field: "authors", Header: "Authors", Width: 260, Value: func(p domain.Publication) string { return orDash(p.AuthorsText) }},
		{Field: "title_english", Header: "Title (English)", Width: 260, Value: func(p domain.Publication) string { return p.TitleEnglishText }},
		{Field: "title_original", Header: "Title (Original)", Width: 240, Value: func(p domain.Publication) string { return p.TitleOriginalText }},
		{Field: "journal", Header: "Journal", Width: 200, Value: func(p domain.Publication) string { return orDash(p.JournalName) }},
		{Field: "doi", Header: "DOI", Width: 180, Sortable: true, Value: func(p domain.Publication) string { return orDash(domain.Deref(p.DOI)) }},
		{Field: "volume", Header: "Vol.", Width: 70, Sortable: true, Value: func(p domain.Publication) string { return domain.Deref(p.Volume) }},
		{Field: "number", Header: "No.", Width: 70, Sortable: true, Value: func(p domain.Publication) string { return domain.Deref(p.Number) }},
		{Field: "page", Header: "Pages", Width: 90, Sortable: true, Value: func(p domain.Publication) string { return domain.Deref(p.Page) }},
		{Field: "publication_date", Header: "Date", Width: 110, Sortable: true, Value: func(p domain.Publication) string {
			d := domain.Deref(p.PublicationDate)
			return d[:min(len(d), 10)]
		}},
		{Field: "is_open_access", Header: "Open", Width: 72, Sortable: true, Value: func(p domain.Publication) string {
			if p.IsOpenAccess {
				return "Open"
			}
			return "—"
		}},
		{Field: "scientific_name_status", Header: "Sci. Name?", Width: 140, Sortable: true, Value: func(p domain.Publication) string { return publicationStatus(p.ScientificNameStatus) }},
		{Field: "taxonomic_act_status", Header: "Tax. Act?", Width: 130, Sortable: true, Value: func(p domain.Publication) string { return publicationStatus(p.TaxonomicActStatus) }},
		{Field: "distribution_status", Header: "Dist.?", Width: 110, Sortable: true, Value: func(p domain.Publication) string { return publicationStatus(p.DistributionStatus) }},
		{Field: "ecological_data_status", Header: "Ecol.?", Width: 110, Sortable: true, Value: func(p domain.Publication) string { return publicationStatus(p.EcologicalDataStatus) }},
	}
}
