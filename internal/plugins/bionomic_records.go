// internal/plugins/bionomic_records.go
package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

var bionomicSearchColumns = []string{
	"id", "source_publication_id", "page_start", "page_end", "target_taxa_id",
	"data_type", "country_id", "host_taxon_id", "other_related_taxon_id", "remark",
}

// Display-only fields of a bionomic record, sorted after the page is fetched.
var bionomicDerivedSort = map[string]func(domain.BionomicRecord) string{
	"_pub_label":   func(b domain.BionomicRecord) string { return b.PubLabel },
	"_taxon_label": func(b domain.BionomicRecord) string { return b.TaxonLabel },
}

// distributionPreview is the number of localities rendered in the list.
const distributionPreview = 5

// BionomicRecords pages bionomic records and hydrates publication and taxon labels.
func BionomicRecords() *console.Plugin[domain.BionomicRecord] {
	p := &console.Plugin[domain.BionomicRecord]{
		Name:        BionomicRecordsConsole,
		Table:       "bionomic_records",
		Select:      "*",
		DefaultSort: console.SortItem{Field: "created_at", Sort: console.SortDesc},
		Or: func(search string) []gateway.Match {
			return gateway.ContainsAny(search, bionomicSearchColumns...)
		},
		Decode:  DecodeBionomicRecord,
		Columns: bionomicRecordColumns,
	}
	p.Fetch = func(ctx context.Context, gw gateway.Gateway, w console.Window) (console.FetchResult[domain.BionomicRecord], error) {
		return fetchBionomicRecords(ctx, gw, p, w)
	}
	return p
}

// DecodeBionomicRecord maps a bionomic_records row.
func DecodeBionomicRecord(r domain.Record) (domain.BionomicRecord, error) {
	return decodeRecord[domain.BionomicRecord](r)
}

func fetchBionomicRecords(ctx context.Context, gw gateway.Gateway, p *console.Plugin[domain.BionomicRecord], w console.Window) (console.FetchResult[domain.BionomicRecord], error) {
	serverWindow := w
	derivedKey, derived := bionomicDerivedSort[w.OrderBy]
	if derived {
		serverWindow.OrderBy = p.DefaultSort.Field
		serverWindow.Ascending = p.DefaultSort.Sort != console.SortDesc
	}

	records, count, err := console.SelectWindow(ctx, gw, p.Table, p.Select, p.SearchFilter(w.Search), serverWindow)
	if err != nil {
		return console.FetchResult[domain.BionomicRecord]{}, fmt.Errorf("fetching bionomic records: %w", err)
	}
	customLog.Debugf("Console[%s]: fetched %d rows (total %v)", p.Name, len(records), count)

	var pubIDs, taxonIDs []string
	for _, r := range records {
		pubIDs = append(pubIDs, r.String("source_publication_id"))
		taxonIDs = append(taxonIDs, r.String("target_taxa_id"))
	}
	pubLabels := loadPublicationLabels(ctx, gw, pubIDs)
	taxonNames := loadTaxonNames(ctx, gw, taxonIDs)

	rows := make([]domain.BionomicRecord, 0, len(records))
	for _, r := range records {
		b, err := p.Decode(r)
		if err != nil {
			return console.FetchResult[domain.BionomicRecord]{}, err
		}
		pubID := domain.Deref(b.SourcePublicationID)
		b.PubLabel = firstText(pubLabels[pubID], pubID, "—")
		b.TaxonLabel = firstText(taxonNames[b.TargetTaxaID], b.TargetTaxaID)
		rows = append(rows, p.NormalizeRow(b))
	}
	if derived {
		console.SortRows(rows, derivedKey, w.Ascending)
	}

	total := len(rows)
	if count != nil {
		total = *count
	}
	return console.FetchResult[domain.BionomicRecord]{Rows: rows, Total: total, Paged: true}, nil
}

// loadPublicationLabels builds the display label of each publication id.
func loadPublicationLabels(ctx context.Context, gw gateway.Gateway, ids []string) map[string]string {
	ids = uniq(ids)
	if len(ids) == 0 {
		return nil
	}
	pubs, err := selectIn(ctx, gw, "publications", "id, title_english, publication_date, volume, number, page, journal_id", "id", ids)
	if err != nil {
		customLog.Warnf("Console[%s]: publications unavailable: %v", BionomicRecordsConsole, err)
		return nil
	}
	journals := loadJournalNames(ctx, gw, pubs)

	labels := make(map[string]string, len(pubs))
	for _, pub := range pubs {
		labels[pub.String("id")] = PublicationLabel(pub, journals[pub.String("journal_id")])
	}
	return labels
}

func loadJournalNames(ctx context.Context, gw gateway.Gateway, pubs []domain.Record) map[string]string {
	var ids []string
	for _, pub := range pubs {
		ids = append(ids, pub.String("journal_id"))
	}
	if len(uniq(ids)) == 0 {
		return nil
	}
	journals, err := selectIn(ctx, gw, "journals", "id, name_english", "id", ids)
	if err != nil {
		customLog.Warnf("Console: journals unavailable: %v", err)
		return nil
	}
	names := make(map[string]string, len(journals))
	for _, j := range journals {
		names[j.String("id")] = j.String("name_english")
	}
	return names
}

func loadTaxonNames(ctx context.Context, gw gateway.Gateway, ids []string) map[string]string {
	ids = uniq(ids)
	if len(ids) == 0 {
		return nil
	}
	taxa, err := selectIn(ctx, gw, "scientific_names", "id, name_spell_valid", "id", ids)
	if err != nil {
		customLog.Warnf("Console[%s]: taxa unavailable: %v", BionomicRecordsConsole, err)
		return nil
	}
	names := make(map[string]string, len(taxa))
	for _, t := range taxa {
		names[t.String("id")] = t.String("name_spell_valid")
	}
	return names
}

// DistributionSummary renders up to five localities, one per line.
func DistributionSummary(entries []domain.DistributionEntry) string {
	if len(entries) == 0 {
		return "—"
	}
	lines := make([]string, 0, distributionPreview+1)
	for i, d := range entries {
		if i == distributionPreview {
			lines = append(lines, fmt.Sprintf("… (+%d)", len(entries)-distributionPreview))
			break
		}
		bits := []string{}
		for _, s := range []string{d.Country, d.State, d.City, d.Detail} {
			if s != "" {
				bits = append(bits, s)
			}
		}
		if d.Latitude != nil && d.Longitude != nil {
			bits = append(bits, fmt.Sprintf("(%s, %s)", domain.Stringify(*d.Latitude), domain.Stringify(*d.Longitude)))
		}
		lines = append(lines, strings.Join(bits, ", "))
	}
	return strings.Join(lines, "\n")
}

func bionomicRecordColumns(onEdit func(domain.BionomicRecord) string) []console.Column[domain.BionomicRecord] {
	optInt := func(v *int64) string {
		if v == nil {
			return ""
		}
		return domain.Stringify(*v)
	}
	return []console.Column[domain.BionomicRecord]{
		console.ActionsColumn(onEdit),
		{Field: "id", Header: "ID", Width: 80, Sortable: true, Value: func(b domain.BionomicRecord) string { return b.RowID() }},
		{Field: "created_at", Header: "Created At", Width: 160, Sortable: true, Value: func(b domain.BionomicRecord) string {
			return orDash(FormatTimestamp(b.CreatedAt))
		}},
		{Field: "_pub_label", Header: "Source Publication", Width: 320, Sortable: true, Value: func(b domain.BionomicRecord) string { return b.PubLabel }},
		{Field: "page_start", Header: "Page Start", Width: 110, Sortable: true, Value: func(b domain.BionomicRecord) string { return optInt(b.PageStart) }},
		{Field: "page_end", Header: "Page End", Width: 110, Sortable: true, Value: func(b domain.BionomicRecord) string { return optInt(b.PageEnd) }},
		{Field: "_taxon_label", Header: "Target Taxon", Width: 240, Sortable: true, Value: func(b domain.BionomicRecord) string { return b.TaxonLabel }},
		{Field: "data_type", Header: "Data Type", Width: 120, Sortable: true, Value: func(b domain.BionomicRecord) string { return b.DataType }},
		{Field: "distribution", Header: "Distribution", Width: 360, Value: func(b domain.BionomicRecord) string { return DistributionSummary(b.Distribution) }},
		{Field: "remark", Header: "Remark", Width: 220, Sortable: true, Value: func(b domain.BionomicRecord) string { return domain.Deref(b.Remark) }},
	}
}
