// internal/plugins/taxonomic_acts.go
package plugins

import (
	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

var taxonomicActSearchColumns = []string{
	"id", "scientific_name_id", "publication_id", "act_type_id", "related_name_id",
	"replacement_name_id", "rank_change_to", "type_specimen_id", "type_taxon_id",
	"page", "remarks",
}

// TaxonomicActs lists acts through the generic paged query.
func TaxonomicActs() *console.Plugin[domain.TaxonomicAct] {
	return &console.Plugin[domain.TaxonomicAct]{
		Name:        TaxonomicActsConsole,
		Table:       "taxonomic_acts",
		Select:      "*",
		DefaultSort: console.SortItem{Field: "created_at", Sort: console.SortDesc},
		Or: func(search string) []gateway.Match {
			return gateway.ContainsAny(search, taxonomicActSearchColumns...)
		},
		Decode:    decodeRecord[domain.TaxonomicAct],
		Normalize: normalizeTaxonomicAct,
		Columns:   taxonomicActColumns,
	}
}

// normalizeTaxonomicAct logs the first sight of a row and marks it.
func normalizeTaxonomicAct(a domain.TaxonomicAct) domain.TaxonomicAct {
	if !a.Logged {
		customLog.Debugf("Console[%s]: row %s act=%s name=%s", TaxonomicActsConsole,
			a.ID, domain.Deref(a.ActTypeID), domain.Deref(a.ScientificNameID))
		a.Logged = true
	}
	return a
}

func taxonomicActColumns(onEdit func(domain.TaxonomicAct) string) []console.Column[domain.TaxonomicAct] {
	text := func(field, header string, width int, get func(domain.TaxonomicAct) *string) console.Column[domain.TaxonomicAct] {
		return console.Column[domain.TaxonomicAct]{Field: field, Header: header, Width: width, Sortable: true,
			Value: func(a domain.TaxonomicAct) string { return domain.Deref(get(a)) }}
	}
	return []console.Column[domain.TaxonomicAct]{
		console.ActionsColumn(onEdit),
		{Field: "id", Header: "ID", Width: 220, Sortable: true, Value: func(a domain.TaxonomicAct) string { return a.ID }},
		text("scientific_name_id", "Target Name", 240, func(a domain.TaxonomicAct) *string { return a.ScientificNameID }),
		text("publication_id", "Publication", 220, func(a domain.TaxonomicAct) *string { return a.PublicationID }),
		text("act_type_id", "Act Type (Code)", 160, func(a domain.TaxonomicAct) *string { return a.ActTypeID }),
		text("related_name_id", "Related Name", 240, func(a domain.TaxonomicAct) *string { return a.RelatedNameID }),
		text("replacement_name_id", "Replacement Name", 240, func(a domain.TaxonomicAct) *string { return a.ReplacementNameID }),
		text("rank_change_to", "New Rank", 140, func(a domain.TaxonomicAct) *string { return a.RankChangeTo }),
		text("type_specimen_id", "Type Specimen", 200, func(a domain.TaxonomicAct) *string { return a.TypeSpecimenID }),
		text("type_taxon_id", "Type Taxon", 200, func(a domain.TaxonomicAct) *string { return a.TypeTaxonID }),
		text("page", "Page", 100, func(a domain.TaxonomicAct) *string { return a.Page }),
		text("remarks", "Remarks", 260, func(a domain.TaxonomicAct) *string { return a.Remarks }),
		{Field: "created_at", Header: "Created At", Width: 180, Sortable: true, Value: func(a domain.TaxonomicAct) string {
			return orDash(FormatTimestamp(a.CreatedAt))
		}},
	}
}
