// internal/plugins/options.go
package plugins

import (
	"context"
	"fmt"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// PublicationOptions lists every publication labelled the way the bionomic
// records console shows it.
func PublicationOptions(ctx context.Context, gw gateway.Gateway) ([]domain.Option, error) {
	pubs, err := gateway.SelectAll(ctx, gw, gateway.Query{
		Table:  "publications",
		Select: "id, title_english, publication_date, volume, number, page, journal_id",
		Order:  []gateway.Order{{Column: "id", Ascending: true}},
	}, allChunk)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	journals := loadJournalNames(ctx, gw, pubs)

	out := make([]domain.Option, 0, len(pubs))
	for _, pub := range pubs {
		out = append(out, domain.Option{ID: pub.String("id"), Label: PublicationLabel(pub, journals[pub.String("journal_id")])})
	}
	return out, nil
}

// RepositoryOptions lists every repository as "ACR — name (city, country)".
func RepositoryOptions(ctx context.Context, gw gateway.Gateway) ([]domain.Option, error) {
	repos, err := gateway.SelectAll(ctx, gw, gateway.Query{
		Table:  "Repositories",
		Select: "uuid, acronym, name_en, city, country",
		Order:  []gateway.Order{{Column: "acronym", Ascending: true}},
	}, allChunk)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	out := make([]domain.Option, 0, len(repos))
	for _, r := range repos {
		out = append(out, domain.Option{ID: r.String("uuid"), Label: orDash(RepositoryOptionLabel(r))})
	}
	return out, nil
}

// ResearcherOptions lists every researcher as "Last, First".
func ResearcherOptions(ctx context.Context, gw gateway.Gateway) ([]domain.Option, error) {
	people, err := gateway.SelectAll(ctx, gw, gateway.Query{
		Table:  "researchers",
		Select: "id, last_name, first_name",
		Order: []gateway.Order{
			{Column: "last_name", Ascending: true},
			{Column: "first_name", Ascending: true},
		},
	}, allChunk)
	if err != nil {
		return nil, fmt.Errorf("listing researchers: %w", err)
	}
	out := make([]domain.Option, 0, len(people))
	for _, p := range people {
		label := firstText(PersonLabel(p.String("last_name"), p.String("first_name")), p.String("id"))
		out = append(out, domain.Option{ID: p.String("id"), Label: label})
	}
	return out, nil
}

// ScientificNameOptions lists every name id, labelled with its valid spelling.
func ScientificNameOptions(ctx context.Context, gw gateway.Gateway) ([]domain.Option, error) {
	names, err := gateway.SelectAll(ctx, gw, gateway.Query{
		Table:  "scientific_names",
		Select: "id, name_spell_valid",
		Order:  []gateway.Order{{Column: "id", Ascending: true}},
	}, allChunk)
	if err != nil {
		return nil, fmt.Errorf("listing scientific names: %w", err)
	}
	out := make([]domain.Option, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Option{ID: n.String("id"), Label: firstText(n.String("name_spell_valid"), n.String("id"))})
	}
	return out, nil
}
