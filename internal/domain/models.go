// internal/domain/models.go
package domain

import "time"

// EntityKind tags a typed row with the console it belongs to.
type EntityKind string

const (
	KindScientificName EntityKind = "scientific_names"
	KindTaxonomicAct   EntityKind = "taxonomic_acts"
	KindBionomicRecord EntityKind = "bionomic_records"
	KindRepository     EntityKind = "repositories"
	KindResearcher     EntityKind = "researchers"
	KindPublication    EntityKind = "publications"
)

// Row is implemented by every typed console row.
type Row interface {
	Kind() EntityKind
	RowID() string
}

// AuthorLink is one ordered entry of a scientific name's authority.
type AuthorLink struct {
	ResearcherID string `json:"researcher_id"`
	Order        int    `json:"author_order"`
	LastName     string `json:"last_name,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
}

// TypeImage is a titled link to an image of the type specimen.
type TypeImage struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ScientificName is a row of scientific_names plus its display-only fields.
type ScientificName struct {
	ID                          string       `json:"id"`
	NameSpellValid              string       `json:"name_spell_valid"`
	NameSpellOriginal           *string      `json:"name_spell_original"`
	AuthorityYear               *string      `json:"authority_year"`
	CurrentRank                 string       `json:"current_rank"`
	CurrentParent               string       `json:"current_parent"`
	OriginalRank                *string      `json:"original_rank"`
	OriginalParent              *string      `json:"original_parent"`
	ValidNameID                 *string      `json:"valid_name_id"`
	TypeTaxaID                  *string      `json:"type_taxa_id"`
	ExtantFossil                *string      `json:"extant_fossil"`
	TypeCategory                *string      `json:"type_category"`
	TypeLocality                *string      `json:"type_locality"`
	TypeSex                     *string      `json:"type_sex"`
	TypeRepository              *string      `json:"type_repository"`
	TypeRepositoryID            *string      `json:"type_repository_id"`
	TypeHost                    *string      `json:"type_host"`
	SourceOfOriginalDescription *string      `json:"source_of_original_description"`
	Page                        *string      `json:"page"`
	Remark                      *string      `json:"remark"`
	ZoobankURL                  *string      `json:"zoobank_url"`
	TypeImages                  []TypeImage  `json:"type_images,omitempty"`
	LastUpdate                  *string      `json:"last_update"`
	Authors                     []AuthorLink `json:"authors,omitempty"`

	AuthorsDisplay    string `json:"_authors"`
	ValidName         string `json:"_validName"`
	IsSynonym         bool   `json:"_is_synonym"`
	TypeRepoDisplay   string `json:"_typeRepo"`
	LastUpdateDisplay string `json:"_lastUpdateDisp"`
}

func (ScientificName) Kind() EntityKind { return KindScientificName }
func (s ScientificName) RowID() string  { return s.ID }

// TaxonomicAct is a row of taxonomic_acts.
type TaxonomicAct struct {
	ID                string  `json:"id"`
	ScientificNameID  *string `json:"scientific_name_id"`
	PublicationID     *string `json:"publication_id"`
	ActTypeID         *string `json:"act_type_id"`
	RelatedNameID     *string `json:"related_name_id"`
	ReplacementNameID *string `json:"replacement_name_id"`
	RankChangeTo      *string `json:"rank_change_to"`
	TypeSpecimenID    *string `json:"type_specimen_id"`
	TypeTaxonID       *string `json:"type_taxon_id"`
	Page              *string `json:"page"`
	Remarks           *string `json:"remarks"`
	CreatedAt         string  `json:"created_at"`

	Logged bool `json:"__logged"`
}

func (TaxonomicAct) Kind() EntityKind { return KindTaxonomicAct }
func (a TaxonomicAct) RowID() string  { return a.ID }

// DistributionEntry is one locality of a bionomic record's distribution array.
type DistributionEntry struct {
	Country   string   `json:"country"`
	State     string   `json:"state"`
	City      string   `json:"city"`
	Detail    string   `json:"detail"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// BionomicRecord is a row of bionomic_records plus its hydrated labels.
type BionomicRecord struct {
	ID                   int64               `json:"id"`
	SourcePublicationID  *string             `json:"source_publication_id"`
	PageStart            *int64              `json:"page_start"`
	PageEnd              *int64              `json:"page_end"`
	TargetTaxaID         string              `json:"target_taxa_id"`
	DataType             string              `json:"data_type"`
	EcologicalTags       []string            `json:"ecological_tags"`
	HostTaxonID          *string             `json:"host_taxon_id"`
	OtherRelatedTaxonID  *string             `json:"other_related_taxon_id"`
	Remark               *string             `json:"remark"`
	Distribution         []DistributionEntry `json:"distribution"`
	CountryID            *string             `json:"country_id"`
	DataOriginID         *string             `json:"data_origin_id"`
	ReliabilityID        *string             `json:"reliability_id"`
	VerificationStatusID *string             `json:"verification_status_id"`
	CreatedAt            string              `json:"created_at"`

	PubLabel   string `json:"_pub_label"`
	TaxonLabel string `json:"_taxon_label"`
}

func (BionomicRecord) Kind() EntityKind { return KindBionomicRecord }
func (b BionomicRecord) RowID() string  { return Stringify(b.ID) }

// RepositoryRef is the parent summary attached to a repository row.
type RepositoryRef struct {
	UUID    string `json:"uuid"`
	Acronym string `json:"acronym"`
	NameEn  string `json:"name_en"`
}

// Repository is a specimen repository (museum or collection).
type Repository struct {
	UUID        string         `json:"uuid"`
	Acronym     string         `json:"acronym"`
	NameEn      string         `json:"name_en"`
	TaxapadCode string         `json:"taxapad_code"`
	Country     string         `json:"country"`
	City        string         `json:"city"`
	ParentID    *string        `json:"parent_id"`
	CreatedAt   string         `json:"created_at"`
	Parent      *RepositoryRef `json:"_parent"`

	ID            string `json:"id"`
	Name          string `json:"_name"`
	IsSynonym     bool   `json:"is_synonym"`
	ParentDisplay string `json:"_parentDisp"`
}

func (Repository) Kind() EntityKind { return KindRepository }
func (r Repository) RowID() string  { return r.UUID }

// Researcher is a person who authors names or publications.
type Researcher struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Orcid     string   `json:"orcid"`
	Aliases   []string `json:"researcher_aliases"`

	Name        string `json:"name"`
	AliasesText string `json:"aliases"`
}

func (Researcher) Kind() EntityKind { return KindResearcher }
func (r Researcher) RowID() string  { return r.ID }

// PersonName is a researcher reference hydrated onto another row.
type PersonName struct {
	ID        string `json:"id"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
}

// Publication is a bibliographic source.
type Publication struct {
	ID                   string       `json:"id"`
	PublicationType      *string      `json:"publication_type"`
	PublicationDate      *string      `json:"publication_date"`
	TitleEnglish         string       `json:"title_english"`
	TitleOriginal        string       `json:"title_original"`
	JournalID            *string      `json:"journal_id"`
	Volume               *string      `json:"volume"`
	Number               *string      `json:"number"`
	Page                 *string      `json:"page"`
	DOI                  *string      `json:"doi"`
	IsOpenAccess         bool         `json:"is_open_access"`
	ScientificNameStatus *string      `json:"scientific_name_status"`
	TaxonomicActStatus   *string      `json:"taxonomic_act_status"`
	DistributionStatus   *string      `json:"distribution_status"`
	EcologicalDataStatus *string      `json:"ecological_data_status"`
	JournalName          string       `json:"journalName"`
	Authors              []PersonName `json:"authors"`

	AuthorsText       string `json:"authorsText"`
	TitleEnglishText  string `json:"titleEnglishText"`
	TitleOriginalText string `json:"titleOriginalText"`
}

func (Publication) Kind() EntityKind { return KindPublication }
func (p Publication) RowID() string  { return p.ID }

// FieldChange is one entry of an audit diff.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// AuditEntry is an append-only record of one insert, update or delete.
type AuditEntry struct {
	ID           string                 `json:"id"`
	TableName    string                 `json:"table_name"`
	RowID        string                 `json:"row_id"`
	Action       string                 `json:"action"`
	ActorID      string                 `json:"actor_id"`
	ActorDisplay string                 `json:"actor_display"`
	CreatedAt    time.Time              `json:"created_at"`
	BeforeData   Record                 `json:"before_data"`
	AfterData    Record                 `json:"after_data"`
	Diff         map[string]FieldChange `json:"diff"`
}

// Admin is a curator account allowed into the console.
type Admin struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Option is one entry of a master (lookup) list.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
