// internal/editor/entities.go
package editor

import (
	"github.com/Annany2002/taxacurator/internal/plugins"
)

func textField(column, rules string) EntityField {
	return EntityField{Column: column, Kind: FieldText, Rules: rules}
}

// TaxonomicActSchema edits taxonomic acts. Acts get a generated id.
func TaxonomicActSchema() EntitySchema {
	return EntitySchema{
		Name:        plugins.TaxonomicActsConsole,
		Label:       "taxonomic act",
		Table:       "taxonomic_acts",
		Key:         "id",
		GenerateKey: true,
		Fields: []EntityField{
			textField("scientific_name_id", "required"),
			textField("publication_id", "required"),
			textField("act_type_id", "required"),
			textField("related_name_id", ""),
			textField("replacement_name_id", ""),
			textField("rank_change_to", ""),
			textField("type_specimen_id", ""),
			textField("type_taxon_id", ""),
			textField("page", ""),
			textField("remarks", ""),
		},
		Masters: func() []MasterSource {
			return []MasterSource{
				{Name: "scientific_names", Load: plugins.ScientificNameOptions},
				{Name: "publications", Load: plugins.PublicationOptions},
				TableSource("act_types", "taxonomic_act_types", "code", "name", "name"),
				TableSource("ranks", "rank", "id", "", "id"),
			}
		},
	}
}

// RepositorySchema edits specimen repositories, keyed by uuid. A blank
// parent_id marks the repository as its own valid institution.
func RepositorySchema() EntitySchema {
	return EntitySchema{
		Name:        plugins.RepositoriesConsole,
		Label:       "repository",
		Table:       "Repositories",
		Key:         "uuid",
		GenerateKey: true,
		Fields: []EntityField{
			textField("acronym", "required"),
			textField("name_en", "required"),
			textField("taxapad_code", ""),
			textField("country", ""),
			textField("city", ""),
			textField("parent_id", ""),
		},
		Masters: func() []MasterSource {
			return []MasterSource{
				{Name: "repositories", Load: plugins.RepositoryOptions},
				TableSource("countries", "countries", "id", "", "id"),
			}
		},
	}
}

// ResearcherSchema edits researchers.
func ResearcherSchema() EntitySchema {
	return EntitySchema{
		Name:        plugins.ResearchersConsole,
		Label:       "researcher",
		Table:       "researchers",
		Key:         "id",
		GenerateKey: true,
		Fields: []EntityField{
			textField("last_name", "required"),
			textField("first_name", "required"),
			textField("orcid", "omitempty,orcid"),
		},
	}
}

// PublicationSchema edits publications and their ordered authors. The id is
// chosen by the curator.
func PublicationSchema() EntitySchema {
	return EntitySchema{
		Name:  plugins.PublicationsConsole,
		Label: "publication",
		Table: "publications",
		Key:   "id",
		Fields: []EntityField{
			textField("title_english", "required"),
			textField("title_original", "required"),
			textField("publication_date", "required,datetime=2006-01-02"),
			textField("online_first_date", "omitempty,datetime=2006-01-02"),
			textField("publication_type", ""),
			textField("journal_id", ""),
			textField("volume", ""),
			textField("number", ""),
			textField("article_id", ""),
			textField("page", ""),
			textField("doi", ""),
			{Column: "is_open_access", Kind: FieldBool},
			textField("scientific_name_status", ""),
			textField("taxonomic_act_status", ""),
			textField("distribution_status", ""),
			textField("ecological_data_status", ""),
		},
		Authors: &PublicationAuthors,
		Masters: func() []MasterSource {
			return []MasterSource{
				TableSource("journals", "journals", "id", "name_english", "name_english"),
				{Name: "researchers", Load: plugins.ResearcherOptions},
			}
		},
	}
}

// EntitySchemas lists every table edited through the generic record dialog.
func EntitySchemas() []EntitySchema {
	return []EntitySchema{TaxonomicActSchema(), RepositorySchema(), ResearcherSchema(), PublicationSchema()}
}
