// internal/plugins/scientific_names.go
package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// Console names.
const (
	ScientificNamesConsole = "scientific-names"
	TaxonomicActsConsole   = "taxonomic-acts"
	BionomicRecordsConsole = "bionomic-records"
	RepositoriesConsole    = "repositories"
	ResearchersConsole     = "researchers"
	PublicationsConsole    = "publications"
)

const scientificNameSelect = `
	id, name_spell_valid, name_spell_original, authority_year,
	current_rank, current_parent, original_rank, original_parent,
	valid_name_id, type_taxa_id, extant_fossil, type_category,
	type_locality, type_sex, type_repository, type_repository_id,
	type_host, source_of_original_description, page, remark,
	zoobank_url, type_images, last_update`

// SynonymRanks mark a name as a synonym regardless of its valid-name link.
var SynonymRanks = []string{"synonym", "junior synonym", "objective synonym", "subjective synonym"}

var scientificNameSortKeys = map[string]func(domain.ScientificName) string{
	"id":                             func(s domain.ScientificName) string { return s.ID },
	"name_spell_valid":               func(s domain.ScientificName) string { return s.NameSpellValid },
	"name_spell_original":            func(s domain.ScientificName) string { return domain.Deref(s.NameSpellOriginal) },
	"authority":                      func(s domain.ScientificName) string { return s.AuthorsDisplay },
	"authority_year":                 func(s domain.ScientificName) string { return domain.Deref(s.AuthorityYear) },
	"current_rank":                   func(s domain.ScientificName) string { return s.CurrentRank },
	"current_parent":                 func(s domain.ScientificName) string { return s.CurrentParent },
	"original_rank":                  func(s domain.ScientificName) string { return domain.Deref(s.OriginalRank) },
	"original_parent":                func(s domain.ScientificName) string { return domain.Deref(s.OriginalParent) },
	"valid_name_id":                  func(s domain.ScientificName) string { return s.ValidName },
	"type_taxa_id":                   func(s domain.ScientificName) string { return domain.Deref(s.TypeTaxaID) },
	"extant_fossil":                  func(s domain.ScientificName) string { return domain.Deref(s.ExtantFossil) },
	"type_category":                  func(s domain.ScientificName) string { return domain.Deref(s.TypeCategory) },
	"type_locality":                  func(s domain.ScientificName) string { return domain.Deref(s.TypeLocality) },
	"type_sex":                       func(s domain.ScientificName) string { return domain.Deref(s.TypeSex) },
	"type_repository":                func(s domain.ScientificName) string { return s.TypeRepoDisplay },
	"type_host":                      func(s domain.ScientificName) string { return domain.Deref(s.TypeHost) },
	"source_of_original_description": func(s domain.ScientificName) string { return domain.Deref(s.SourceOfOriginalDescription) },
	"page":                           func(s domain.ScientificName) string { return domain.Deref(s.Page) },
	"remark":                         func(s domain.ScientificName) string { return domain.Deref(s.Remark) },
	"last_update":                    func(s domain.ScientificName) string { return s.LastUpdateDisplay },
	"status":                         func(s domain.ScientificName) string { return console.BoolKey(s.IsSynonym) },
}

// ScientificNames lists every name with its authority, valid name, synonym
// status and type repository resolved. Search, sort and paging run over the
// hydrated rows because most displayed fields are derived.
func ScientificNames() *console.Plugin[domain.ScientificName] {
	p := &console.Plugin[domain.ScientificName]{
		Name:        ScientificNamesConsole,
		Table:       "scientific_names",
		Select:      scientificNameSelect,
		DefaultSort: console.SortItem{Field: "name_spell_valid", Sort: console.SortAsc},
		Or: func(search string) []gateway.Match {
			return gateway.ContainsAny(search, "id", "name_spell_valid", "name_spell_original", "current_parent", "remark")
		},
		Decode:    DecodeScientificName,
		Normalize: normalizeScientificName,
		Columns:   scientificNameColumns,
	}
	p.Fetch = func(ctx context.Context, gw gateway.Gateway, w console.Window) (console.FetchResult[domain.ScientificName], error) {
		return fetchScientificNames(ctx, gw, p, w)
	}
	return p
}

// DecodeScientificName maps a scientific_names row.
func DecodeScientificName(r domain.Record) (domain.ScientificName, error) {
	return decodeRecord[domain.ScientificName](r)
}

func normalizeScientificName(s domain.ScientificName) domain.ScientificName {
	s.AuthorsDisplay = FormatAuthors(s.Authors)
	s.LastUpdateDisplay = FormatTimestamp(domain.Deref(s.LastUpdate))
	return s
}

// IsSynonymRank reports whether rank is one of SynonymRanks.
func IsSynonymRank(rank string) bool {
	rank = strings.ToLower(strings.TrimSpace(rank))
	for _, kw := range SynonymRanks {
		if rank == kw {
			return true
		}
	}
	return false
}

func fetchScientificNames(ctx context.Context, gw gateway.Gateway, p *console.Plugin[domain.ScientificName], w console.Window) (console.FetchResult[domain.ScientificName], error) {
	records, err := gateway.SelectAll(ctx, gw, gateway.Query{
		Table:  p.Table,
		Select: p.Select,
		Order:  []gateway.Order{{Column: "id", Ascending: true}},
	}, allChunk)
	if err != nil {
		return console.FetchResult[domain.ScientificName]{}, fmt.Errorf("fetching scientific names: %w", err)
	}
	customLog.Debugf("Console[%s]: fetched %d names", p.Name, len(records))

	authors := loadAuthorLinks(ctx, gw)
	repoLabels := loadRepositoryLabels(ctx, gw, records)

	validNames := make(map[string]string, len(records))
	for _, r := range records {
		validNames[r.String("id")] = r.String("name_spell_valid")
	}

	rows := make([]domain.ScientificName, 0, len(records))
	for _, r := range records {
		s, err := p.Decode(r)
		if err != nil {
			return console.FetchResult[domain.ScientificName]{}, err
		}
		s.Authors = authors[s.ID]

		linked := s.ValidNameID != nil && *s.ValidNameID != "" && *s.ValidNameID != s.ID
		s.IsSynonym = IsSynonymRank(s.CurrentRank) || linked
		if linked {
			s.ValidName = validNames[*s.ValidNameID]
		}

		switch {
		case domain.Deref(s.TypeRepository) != "":
			s.TypeRepoDisplay = *s.TypeRepository
		case domain.Deref(s.TypeRepositoryID) != "":
			s.TypeRepoDisplay = firstText(repoLabels[*s.TypeRepositoryID], *s.TypeRepositoryID)
		}
		rows = append(rows, p.NormalizeRow(s))
	}

	rows = console.FilterRows(rows, w.Search, scientificNameSearchFields)

	key, ok := scientificNameSortKeys[w.OrderBy]
	if !ok {
		key = scientificNameSortKeys["name_spell_valid"]
	}
	console.SortRows(rows, key, w.Ascending)

	return console.FetchResult[domain.ScientificName]{
		Rows:  console.Paginate(rows, w),
		Total: len(rows),
		Paged: true,
	}, nil
}

func scientificNameSearchFields(s domain.ScientificName) []string {
	return []string{
		s.ID, s.NameSpellValid, domain.Deref(s.NameSpellOriginal), s.AuthorsDisplay,
		domain.Deref(s.AuthorityYear), s.CurrentRank, s.CurrentParent,
		domain.Deref(s.OriginalRank), domain.Deref(s.OriginalParent), s.ValidName,
		domain.Deref(s.TypeTaxaID), domain.Deref(s.ExtantFossil), domain.Deref(s.TypeCategory),
		domain.Deref(s.TypeLocality), domain.Deref(s.TypeSex), s.TypeRepoDisplay,
		domain.Deref(s.TypeHost), domain.Deref(s.SourceOfOriginalDescription),
		domain.Deref(s.Page), domain.Deref(s.Remark), s.LastUpdateDisplay,
	}
}

// loadAuthorLinks returns the ordered authors of every name. Failures leave
// names without authors.
func loadAuthorLinks(ctx context.Context, gw gateway.Gateway) map[string][]domain.AuthorLink {
	links, err := gateway.SelectAll(ctx, gw, gateway.Query{
		Table:  "scientific_name_and_author",
		Select: "scientific_name_id, researcher_id, author_order",
		Order: []gateway.Order{
			{Column: "scientific_name_id", Ascending: true},
			{Column: "author_order", Ascending: true},
		},
	}, allChunk)
	if err != nil {
		customLog.Warnf("Console[%s]: author links unavailable: %v", ScientificNamesConsole, err)
		return nil
	}

	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.String("researcher_id"))
	}
	people, err := selectIn(ctx, gw, "researchers", "id, last_name, first_name", "id", ids)
	if err != nil {
		customLog.Warnf("Console[%s]: researchers unavailable: %v", ScientificNamesConsole, err)
	}
	byID := indexBy(people, "id")

	out := make(map[string][]domain.AuthorLink)
	for _, l := range links {
		order, _ := l.Int("author_order")
		link := domain.AuthorLink{ResearcherID: l.String("researcher_id"), Order: int(order)}
		if person, ok := byID[link.ResearcherID]; ok {
			link.LastName = person.String("last_name")
			link.FirstName = person.String("first_name")
		}
		nameID := l.String("scientific_name_id")
		out[nameID] = append(out[nameID], link)
	}
	return out
}

// loadRepositoryLabels resolves the repositories referenced only by id.
func loadRepositoryLabels(ctx context.Context, gw gateway.Gateway, names []domain.Record) map[string]string {
	var ids []string
	for _, r := range names {
		if r.String("type_repository") == "" && r.String("type_repository_id") != "" {
			ids = append(ids, r.String("type_repository_id"))
		}
	}
	if len(ids) == 0 {
		return nil
	}
	repos, err := selectIn(ctx, gw, "Repositories", "uuid, acronym, name_en, city, country", "uuid", ids)
	if err != nil {
		customLog.Warnf("Console[%s]: repository labels unavailable, showing ids: %v", ScientificNamesConsole, err)
		return nil
	}
	labels := make(map[string]string, len(repos))
	for _, r := range repos {
		labels[r.String("uuid")] = RepositoryLabel(r.String("acronym"), r.String("name_en"), r.String("city"), r.String("country"))
	}
	return labels
}

func scientificNameColumns(onEdit func(domain.ScientificName) string) []console.Column[domain.ScientificName] {
	text := func(field, header string, width int, get func(domain.ScientificName) string) console.Column[domain.ScientificName] {
		return console.Column[domain.ScientificName]{Field: field, Header: header, Width: width, Sortable: true, Value: get}
	}
	opt := func(get func(domain.ScientificName) *string) func(domain.ScientificName) string {
		return func(s domain.ScientificName) string { return domain.Deref(get(s)) }
	}
	return []console.Column[domain.ScientificName]{
		console.ActionsColumn(onEdit),
		text("id", "ID", 220, func(s domain.ScientificName) string { return s.ID }),
		{Field: "status", Header: "Status", Width: 110, Value: func(s domain.ScientificName) string {
			if s.IsSynonym {
				return "Synonym"
			}
			return "Valid Name"
		}},
		text("valid_name_id", "Valid Name", 220, func(s domain.ScientificName) string {
			if !s.IsSynonym {
				return "—"
			}
			return orDash(s.ValidName)
		}),
		text("name_spell_valid", "Name (valid)", 220, func(s domain.ScientificName) string { return orDash(s.NameSpellValid) }),
		text("name_spell_original", "Original Spelling", 200, func(s domain.ScientificName) string { return orDash(domain.Deref(s.NameSpellOriginal)) }),
		{Field: "authority", Header: "Authority", Width: 200, Value: func(s domain.ScientificName) string { return s.AuthorsDisplay }},
		text("authority_year", "Year", 90, opt(func(s domain.ScientificName) *string { return s.AuthorityYear })),
		text("current_rank", "Current Rank", 120, func(s domain.ScientificName) string { return s.CurrentRank }),
		text("current_parent", "Current Parent", 160, func(s domain.ScientificName) string { return s.CurrentParent }),
		text("original_rank", "Original Rank", 120, opt(func(s domain.ScientificName) *string { return s.OriginalRank })),
		text("original_parent", "Original Parent", 160, opt(func(s domain.ScientificName) *string { return s.OriginalParent })),
		text("type_taxa_id", "Type Taxa ID", 150, opt(func(s domain.ScientificName) *string { return s.TypeTaxaID })),
		text("extant_fossil", "Extant/Fossil", 120, opt(func(s domain.ScientificName) *string { return s.ExtantFossil })),
		text("type_category", "Type Category", 140, opt(func(s domain.ScientificName) *string { return s.TypeCategory })),
		text("type_locality", "Type Locality", 160, opt(func(s domain.ScientificName) *string { return s.TypeLocality })),
		text("type_sex", "Type Sex", 100, opt(func(s domain.ScientificName) *string { return s.TypeSex })),
		text("type_repository", "Type Repository", 240, func(s domain.ScientificName) string { return orDash(s.TypeRepoDisplay) }),
		text("type_host", "Type Host", 160, opt(func(s domain.ScientificName) *string { return s.TypeHost })),
		text("source_of_original_description", "Source", 180, opt(func(s domain.ScientificName) *string { return s.SourceOfOriginalDescription })),
		text("page", "Page", 80, opt(func(s domain.ScientificName) *string { return s.Page })),
		text("remark", "Remark", 220, func(s domain.ScientificName) string { return orDash(domain.Deref(s.Remark)) }),
		text("last_update", "Last Update", 160, func(s domain.ScientificName) string { return s.LastUpdateDisplay }),
	}
}
