// internal/plugins/registry.go
package plugins

import (
	"net/url"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// EditLinks locate the edit dialog of each console. A blank link leaves
// the console's actions column empty.
type EditLinks struct {
	ScientificNames string
	TaxonomicActs   string
	BionomicRecords string
	Repositories    string
	Researchers     string
	Publications    string
}

// DefaultEditLinks are the draft routes served by the API.
var DefaultEditLinks = EditLinks{
	ScientificNames: "/api/v1/" + ScientificNamesConsole,
	TaxonomicActs:   "/api/v1/" + TaxonomicActsConsole,
	BionomicRecords: "/api/v1/" + BionomicRecordsConsole,
	Repositories:    "/api/v1/" + RepositoriesConsole,
	Researchers:     "/api/v1/" + ResearchersConsole,
	Publications:    "/api/v1/" + PublicationsConsole,
}

func draftLink[T domain.Row](base string) func(T) string {
	if base == "" {
		return nil
	}
	return func(row T) string {
		return base + "/" + url.PathEscape(row.RowID()) + "/draft"
	}
}

// NewRegistry builds every console served by the API.
func NewRegistry(gw gateway.Gateway, links EditLinks) *console.Registry {
	return console.NewRegistry(
		console.NewPage(ScientificNames(), gw, draftLink[domain.ScientificName](links.ScientificNames)),
		console.NewPage(TaxonomicActs(), gw, draftLink[domain.TaxonomicAct](links.TaxonomicActs)),
		console.NewPage(BionomicRecords(), gw, draftLink[domain.BionomicRecord](links.BionomicRecords)),
		console.NewPage(Repositories(), gw, draftLink[domain.Repository](links.Repositories)),
		console.NewPage(Researchers(), gw, draftLink[domain.Researcher](links.Researchers)),
		console.NewPage(Publications(), gw, draftLink[domain.Publication](links.Publications)),
	)
}
