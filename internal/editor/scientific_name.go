// internal/editor/scientific_name.go
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/plugins"
	"github.com/Annany2002/taxacurator/internal/session"
)

const scientificNamesTable = "scientific_names"

// Relationship radio values.
const (
	ChoiceOwn   = "own"
	ChoiceOther = "other"
)

// ranksWithoutLocality are the ranks at or above subgenus; their names carry
// no type locality.
var ranksWithoutLocality = []string{"subgenus", "genus", "family", "order", "class", "phylum", "kingdom"}

// ImageRow is one titled type-specimen image link.
type ImageRow struct {
	Title string `json:"title" validate:"required_with=URL"`
	URL   string `json:"url" validate:"required_with=Title,omitempty,httpurl"`
}

// ScientificNameDraft is the editable form of a scientific name. Authors
// holds researcher ids in authority order.
type ScientificNameDraft struct {
	ID                          string     `json:"id" validate:"required"`
	NameSpellValid              string     `json:"name_spell_valid" validate:"required"`
	NameSpellOriginal           string     `json:"name_spell_original"`
	CurrentRank                 string     `json:"current_rank" validate:"required"`
	OriginalRank                string     `json:"original_rank"`
	CurrentParent               string     `json:"current_parent" validate:"required"`
	OriginalParent              string     `json:"original_parent"`
	ExtantFossil                string     `json:"extant_fossil"`
	Remark                      string     `json:"remark"`
	AuthorityYear               string     `json:"authority_year" validate:"year4"`
	TypeSex                     string     `json:"type_sex"`
	TypeLocality                string     `json:"type_locality"`
	TypeRepositoryID            string     `json:"type_repository_id"`
	TypeHost                    string     `json:"type_host"`
	TypeCategory                string     `json:"type_category"`
	Page                        string     `json:"page"`
	SourceOfOriginalDescription string     `json:"source_of_original_description"`
	ZoobankURL                  string     `json:"zoobank_url" validate:"omitempty,zoobank"`
	TypeImages                  []ImageRow `json:"type_images" validate:"dive"`
	ValidNameChoice             string     `json:"valid_name_choice" validate:"omitempty,oneof=own other"`
	ValidNameID                 string     `json:"valid_name_id" validate:"required_if=ValidNameChoice other"`
	TypeTaxaChoice              string     `json:"type_taxa_choice" validate:"omitempty,oneof=own other"`
	TypeTaxaID                  string     `json:"type_taxa_id" validate:"required_if=TypeTaxaChoice other"`
	Authors                     []string   `json:"authors" validate:"min=1,unique,dive,required"`
}

// Validate checks the draft and returns a *ValidationError on failure.
func (d ScientificNameDraft) Validate() error {
	d.ID = strings.TrimSpace(d.ID)
	d.NameSpellValid = strings.TrimSpace(d.NameSpellValid)
	d.CurrentParent = strings.TrimSpace(d.CurrentParent)
	return validateDraft(d)
}

// scalarPayload holds the columns written by the first insert.
func (d ScientificNameDraft) scalarPayload(now time.Time) domain.Record {
	locality := nullable(d.TypeLocality)
	if hasNoLocality(d.CurrentRank) {
		locality = nil
	}
	return domain.Record{
		"name_spell_valid":    strings.TrimSpace(d.NameSpellValid),
		"name_spell_original": nullable(d.NameSpellOriginal),
		"current_rank":        d.CurrentRank,
		"original_rank":       nullable(d.OriginalRank),
		"extant_fossil":       nullable(d.ExtantFossil),
		"remark":              nullable(d.Remark),
		"authority_year":      strings.TrimSpace(d.AuthorityYear),
		"type_sex":            nullable(d.TypeSex),
		"type_locality":       locality,
		"type_repository_id":  nullable(d.TypeRepositoryID),
		"type_host":           nullable(d.TypeHost),
		"page":                nullable(d.Page),
		"type_category":       nullable(d.TypeCategory),
		"zoobank_url":         nullable(d.ZoobankURL),
		"type_images":         d.imagesPayload(),
		"last_update":         now.UTC().Format(time.RFC3339),
	}
}

// relationshipPayload holds the columns that may point at the record itself.
func (d ScientificNameDraft) relationshipPayload(id string, now time.Time) domain.Record {
	return domain.Record{
		"current_parent":                 nullable(d.CurrentParent),
		"original_parent":                nullable(d.OriginalParent),
		"valid_name_id":                  resolveChoice(d.ValidNameChoice, id, d.ValidNameID),
		"type_taxa_id":                   resolveChoice(d.TypeTaxaChoice, id, d.TypeTaxaID),
		"source_of_original_description": nullable(d.SourceOfOriginalDescription),
		"last_update":                    now.UTC().Format(time.RFC3339),
	}
}

func (d ScientificNameDraft) imagesPayload() any {
	var images []any
	for _, img := range d.TypeImages {
		title, url := strings.TrimSpace(img.Title), strings.TrimSpace(img.URL)
		if title == "" || url == "" {
			continue
		}
		images = append(images, map[string]any{"title": title, "url": url})
	}
	if len(images) == 0 {
		return nil
	}
	return images
}

// resolveChoice applies an own/other radio. An unset radio counts as "own".
func resolveChoice(choice, ownID, otherID string) any {
	if choice == ChoiceOther {
		return nullable(otherID)
	}
	return nullable(ownID)
}

func hasNoLocality(rank string) bool {
	rank = strings.ToLower(strings.TrimSpace(rank))
	for _, r := range ranksWithoutLocality {
		if rank == r {
			return true
		}
	}
	return false
}

// ScientificNameMasterSources are the lookup lists of the scientific name dialog.
func ScientificNameMasterSources() []MasterSource {
	return []MasterSource{
		{Name: "scientific_names", Load: plugins.ScientificNameOptions},
		TableSource("ranks", "rank", "id", "", "id"),
		TableSource("extant_fossil", "extant_fossil", "id", "", "id"),
		TableSource("countries", "countries", "id", "", "id"),
		TableSource("type_categories", "type_categories", "id", "", "id"),
		{Name: "publications", Load: plugins.PublicationOptions},
		{Name: "researchers", Load: plugins.ResearcherOptions},
		{Name: "repositories", Load: plugins.RepositoryOptions},
	}
}

// ScientificNameDialog adds, edits and deletes one scientific name together
// with its ordered authors.
type ScientificNameDialog struct {
	Dialog

	gw      gateway.Gateway
	audit   *audit.Writer
	session *session.Session
	now     func() time.Time

	mode    Mode
	target  string
	draft   ScientificNameDraft
	masters Masters
}

// NewScientificNameDialog creates a closed dialog acting as sess.
func NewScientificNameDialog(gw gateway.Gateway, w *audit.Writer, sess *session.Session) *ScientificNameDialog {
	return &ScientificNameDialog{gw: gw, audit: w, session: sess, now: time.Now}
}

// Mode returns whether the dialog adds or edits.
func (d *ScientificNameDialog) Mode() Mode { return d.mode }

// Draft returns a copy of the current draft.
func (d *ScientificNameDialog) Draft() ScientificNameDraft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneNameDraft(d.draft)
}

// Masters returns the lookup lists loaded when the dialog opened.
func (d *ScientificNameDialog) Masters() Masters { return d.masters }

// OpenAdd opens an empty draft with both relationship radios on "own".
func (d *ScientificNameDialog) OpenAdd(ctx context.Context, loadMasters bool) error {
	return d.open(ctx, func(ctx context.Context) error {
		d.mode, d.target = ModeAdd, ""
		d.draft = ScientificNameDraft{ValidNameChoice: ChoiceOwn, TypeTaxaChoice: ChoiceOwn}
		if loadMasters {
			d.masters = LoadMasters(ctx, d.gw, ScientificNameMasterSources()...)
		}
		return nil
	})
}

// OpenEdit loads the name id and its authors into the draft.
func (d *ScientificNameDialog) OpenEdit(ctx context.Context, id string, loadMasters bool) error {
	return d.open(ctx, func(ctx context.Context) error {
		draft, err := LoadScientificNameDraft(ctx, d.gw, id)
		if err != nil {
			return err
		}
		d.mode, d.target, d.draft = ModeEdit, draft.ID, draft
		if loadMasters {
			d.masters = LoadMasters(ctx, d.gw, ScientificNameMasterSources()...)
			d.dropUnknownRanks()
		}
		return nil
	})
}

// dropUnknownRanks clears ranks that are not in the loaded rank list.
func (d *ScientificNameDialog) dropUnknownRanks() {
	if len(d.masters.Lists["ranks"]) == 0 {
		return
	}
	if d.draft.CurrentRank != "" && !d.masters.Contains("ranks", d.draft.CurrentRank) {
		d.draft.CurrentRank = ""
	}
	if d.draft.OriginalRank != "" && !d.masters.Contains("ranks", d.draft.OriginalRank) {
		d.draft.OriginalRank = ""
	}
}

// Update replaces the draft while editing. In edit mode the id stays fixed.
func (d *ScientificNameDialog) Update(draft ScientificNameDraft) error {
	return d.editing(func() error {
		if d.mode == ModeEdit {
			draft.ID = d.target
		}
		d.draft = cloneNameDraft(draft)
		return nil
	})
}

// Save submits the draft. Adding checks for a duplicate id, inserts the
// scalar columns, then sets the relationship columns. Both modes then sync
// the author links and write an audit entry.
func (d *ScientificNameDialog) Save(ctx context.Context) (Outcome, error) {
	return d.submit(ctx, func() error { return d.draft.Validate() }, func(ctx context.Context) (Outcome, error) {
		if d.mode == ModeEdit {
			return d.saveEdit(ctx)
		}
		return d.saveAdd(ctx)
	})
}

func (d *ScientificNameDialog) saveAdd(ctx context.Context) (Outcome, error) {
	id := strings.TrimSpace(d.draft.ID)

	dup, err := d.gw.Select(ctx, gateway.Query{
		Table:  scientificNamesTable,
		Select: "id",
		Eq:     []gateway.Filter{gateway.Eq("id", id)},
		Range:  &gateway.Range{From: 0, To: 0},
	})
	if err != nil {
		customLog.Warnf("Editor: duplicate check for %q failed: %v", id, err)
		return Outcome{}, fmt.Errorf("failed to check for duplicate ID: %w", err)
	}
	if len(dup.Rows) > 0 {
		customLog.Printf("Editor: rejected scientific name %q: id already exists", id)
		return Outcome{}, fmt.Errorf("%w: %s. Please use a unique ID", ErrDuplicateID, id)
	}

	now := d.now()
	scalars := d.draft.scalarPayload(now)
	row := scalars.Clone()
	row["id"] = id
	if _, err := d.gw.Insert(ctx, scientificNamesTable, row); err != nil {
		customLog.Warnf("Editor: insert of scientific name %q failed: %v", id, err)
		return Outcome{}, fmt.Errorf("insert failed: %w", err)
	}

	relations := d.draft.relationshipPayload(id, now)
	if _, err := d.gw.Update(ctx, scientificNamesTable, relations, gateway.Eq("id", id)); err != nil {
		customLog.Warnf("Editor: relationship update of %q failed: %v", id, err)
		return Outcome{}, fmt.Errorf("update after insert failed: %w", err)
	}

	if err := SyncAuthors(ctx, d.gw, id, d.draft.Authors); err != nil {
		return Outcome{}, err
	}

	after := row.Merge(relations)
	return d.record(ctx, id, audit.ActionInsert, nil, after), nil
}

func (d *ScientificNameDialog) saveEdit(ctx context.Context) (Outcome, error) {
	id := d.target
	before, err := fetchRow(ctx, d.gw, scientificNamesTable, gateway.Eq("id", id))
	if err != nil {
		return Outcome{}, err
	}

	now := d.now()
	patch := d.draft.scalarPayload(now).Merge(d.draft.relationshipPayload(id, now))
	if _, err := d.gw.Update(ctx, scientificNamesTable, patch, gateway.Eq("id", id)); err != nil {
		customLog.Warnf("Editor: update of scientific name %q failed: %v", id, err)
		return Outcome{}, fmt.Errorf("update failed: %w", err)
	}
	if err := SyncAuthors(ctx, d.gw, id, d.draft.Authors); err != nil {
		return Outcome{}, err
	}
	return d.record(ctx, id, audit.ActionUpdate, before, before.Merge(patch)), nil
}

// Delete removes the edited name and records its last state.
func (d *ScientificNameDialog) Delete(ctx context.Context) (Outcome, error) {
	if d.mode != ModeEdit {
		return Outcome{}, ErrNotEditMode
	}
	return d.submit(ctx, nil, func(ctx context.Context) (Outcome, error) {
		id := d.target
		before, err := fetchRow(ctx, d.gw, scientificNamesTable, gateway.Eq("id", id))
		if err != nil {
			return Outcome{}, err
		}
		if _, err := d.gw.Delete(ctx, scientificNamesTable, gateway.Eq("id", id)); err != nil {
			customLog.Warnf("Editor: delete of scientific name %q failed: %v", id, err)
			return Outcome{}, fmt.Errorf("delete failed: %w", err)
		}
		return d.record(ctx, id, audit.ActionDelete, before, nil), nil
	})
}

func (d *ScientificNameDialog) record(ctx context.Context, id, action string, before, after domain.Record) Outcome {
	return writeAudit(ctx, d.audit, d.session, scientificNamesTable, id, action, before, after)
}

// LoadScientificNameDraft reads a stored name and its ordered authors into a draft.
func LoadScientificNameDraft(ctx context.Context, gw gateway.Gateway, id string) (ScientificNameDraft, error) {
	row, err := fetchRow(ctx, gw, scientificNamesTable, gateway.Eq("id", id))
	if err != nil {
		return ScientificNameDraft{}, err
	}
	name, err := plugins.DecodeScientificName(row)
	if err != nil {
		return ScientificNameDraft{}, fmt.Errorf("decoding scientific name %q: %w", id, err)
	}

	authors, err := NameAuthors.Load(ctx, gw, id)
	if err != nil {
		customLog.Warnf("Editor: authors of %q unavailable: %v", id, err)
	}

	draft := ScientificNameDraft{
		ID:                          name.ID,
		NameSpellValid:              name.NameSpellValid,
		NameSpellOriginal:           domain.Deref(name.NameSpellOriginal),
		CurrentRank:                 name.CurrentRank,
		OriginalRank:                domain.Deref(name.OriginalRank),
		CurrentParent:               name.CurrentParent,
		OriginalParent:              domain.Deref(name.OriginalParent),
		ExtantFossil:                domain.Deref(name.ExtantFossil),
		Remark:                      domain.Deref(name.Remark),
		AuthorityYear:               domain.Deref(name.AuthorityYear),
		TypeSex:                     domain.Deref(name.TypeSex),
		TypeLocality:                domain.Deref(name.TypeLocality),
		TypeRepositoryID:            domain.Deref(name.TypeRepositoryID),
		TypeHost:                    domain.Deref(name.TypeHost),
		TypeCategory:                domain.Deref(name.TypeCategory),
		Page:                        domain.Deref(name.Page),
		SourceOfOriginalDescription: domain.Deref(name.SourceOfOriginalDescription),
		ZoobankURL:                  domain.Deref(name.ZoobankURL),
		ValidNameID:                 domain.Deref(name.ValidNameID),
		TypeTaxaID:                  domain.Deref(name.TypeTaxaID),
		Authors:                     authors,
	}
	for _, img := range name.TypeImages {
		draft.TypeImages = append(draft.TypeImages, ImageRow{Title: img.Title, URL: img.URL})
	}
	draft.ValidNameChoice = choiceFor(draft.ValidNameID, id)
	draft.TypeTaxaChoice = choiceFor(draft.TypeTaxaID, id)
	return draft, nil
}

func choiceFor(linked, own string) string {
	if linked == "" || linked == own {
		return ChoiceOwn
	}
	return ChoiceOther
}

// SyncAuthors makes the author links of nameID match authorIDs, in order.
func SyncAuthors(ctx context.Context, gw gateway.Gateway, nameID string, authorIDs []string) error {
	return NameAuthors.Sync(ctx, gw, nameID, authorIDs)
}

// fetchRow reads the single row matching filters.
func fetchRow(ctx context.Context, gw gateway.Gateway, table string, filters ...gateway.Filter) (domain.Record, error) {
	res, err := gw.Select(ctx, gateway.Query{Table: table, Eq: filters, Range: &gateway.Range{From: 0, To: 0}})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s %v", gateway.ErrRecordNotFound, table, filterValues(filters))
	}
	return res.Rows[0], nil
}

func filterValues(filters []gateway.Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, f.Column+"="+domain.Stringify(f.Value))
	}
	return strings.Join(parts, ",")
}

// writeAudit records an entry and folds a failure into the outcome instead
// of failing the save that already reached the store.
func writeAudit(ctx context.Context, w *audit.Writer, sess *session.Session, table, rowID, action string, before, after domain.Record) Outcome {
	out := Outcome{Action: action, Table: table, RowID: rowID, Diff: audit.Diff(before, after)}
	if w == nil {
		return out
	}
	entry, err := w.Write(ctx, sess, table, rowID, action, before, after)
	if err != nil {
		customLog.Warnf("Editor: %s on %s/%s saved without audit entry", action, table, rowID)
	}
	out.Diff = entry.Diff
	out.AuditLogged = err == nil
	return out
}

func cloneNameDraft(d ScientificNameDraft) ScientificNameDraft {
	d.Authors = append([]string(nil), d.Authors...)
	d.TypeImages = append([]ImageRow(nil), d.TypeImages...)
	return d
}
