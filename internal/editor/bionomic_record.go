// internal/editor/bionomic_record.go
package editor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/geo"
	"github.com/Annany2002/taxacurator/internal/plugins"
	"github.com/Annany2002/taxacurator/internal/session"
)

const bionomicRecordsTable = "bionomic_records"

// Data types of a bionomic record.
const (
	DataTypeDistribution = "distribution"
	DataTypeEcology      = "ecology"
)

// DistributionInput is a locality as typed into the distribution sub-form.
type DistributionInput struct {
	Country   string              `json:"country"`
	State     string              `json:"state"`
	City      string              `json:"city"`
	Detail    string              `json:"detail"`
	Latitude  geo.CoordinateInput `json:"latitude"`
	Longitude geo.CoordinateInput `json:"longitude"`
}

// Entry converts the input into a stored distribution entry, resolving DMS
// coordinates to signed decimal degrees.
func (in DistributionInput) Entry() (domain.DistributionEntry, error) {
	lat, err := in.Latitude.Resolve()
	if err != nil {
		return domain.DistributionEntry{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := in.Longitude.Resolve()
	if err != nil {
		return domain.DistributionEntry{}, fmt.Errorf("longitude: %w", err)
	}
	if lat != nil && math.Abs(*lat) > 90 {
		return domain.DistributionEntry{}, fmt.Errorf("latitude: %w: %v", geo.ErrOutOfRange, *lat)
	}
	if lon != nil && math.Abs(*lon) > 180 {
		return domain.DistributionEntry{}, fmt.Errorf("longitude: %w: %v", geo.ErrOutOfRange, *lon)
	}
	return domain.DistributionEntry{
		Country:   strings.TrimSpace(in.Country),
		State:     strings.TrimSpace(in.State),
		City:      strings.TrimSpace(in.City),
		Detail:    strings.TrimSpace(in.Detail),
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// BionomicRecordDraft is the editable form of a bionomic record.
type BionomicRecordDraft struct {
	SourcePublicationID  string                     `json:"source_publication_id"`
	PageStart            string                     `json:"page_start" validate:"omitempty,number"`
	PageEnd              string                     `json:"page_end" validate:"omitempty,number"`
	TargetTaxaID         string                     `json:"target_taxa_id" validate:"required"`
	DataType             string                     `json:"data_type" validate:"required,oneof=distribution ecology"`
	EcologicalTags       []string                   `json:"ecological_tags"`
	HostTaxonID          string                     `json:"host_taxon_id"`
	OtherRelatedTaxonID  string                     `json:"other_related_taxon_id"`
	Remark               string                     `json:"remark"`
	Distribution         []domain.DistributionEntry `json:"distribution"`
	DataOriginID         string                     `json:"data_origin_id"`
	ReliabilityID        string                     `json:"reliability_id"`
	VerificationStatusID string                     `json:"verification_status_id"`
}

// Validate checks the draft and returns a *ValidationError on failure.
func (d BionomicRecordDraft) Validate() error {
	d.TargetTaxaID = strings.TrimSpace(d.TargetTaxaID)
	d.DataType = strings.TrimSpace(d.DataType)
	d.PageStart = strings.TrimSpace(d.PageStart)
	d.PageEnd = strings.TrimSpace(d.PageEnd)
	return validateDraft(d)
}

func (d BionomicRecordDraft) payload() domain.Record {
	var tags any
	if ids := nonEmpty(d.EcologicalTags); len(ids) > 0 {
		tags = ids
	}
	var dist any
	if len(d.Distribution) > 0 {
		dist = d.Distribution
	}
	return domain.Record{
		"source_publication_id":  nullable(d.SourcePublicationID),
		"page_start":             pageNumber(d.PageStart),
		"page_end":               pageNumber(d.PageEnd),
		"target_taxa_id":         strings.TrimSpace(d.TargetTaxaID),
		"data_type":              strings.TrimSpace(d.DataType),
		"ecological_tags":        tags,
		"remark":                 nullable(d.Remark),
		"host_taxon_id":          nullable(d.HostTaxonID),
		"other_related_taxon_id": nullable(d.OtherRelatedTaxonID),
		"distribution":           dist,
		"data_origin_id":         nullable(d.DataOriginID),
		"reliability_id":         nullable(d.ReliabilityID),
		"verification_status_id": nullable(d.VerificationStatusID),
	}
}

func pageNumber(s string) any {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return n
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// BionomicRecordMasterSources are the lookup lists of the bionomic record dialog.
func BionomicRecordMasterSources() []MasterSource {
	return []MasterSource{
		TableSource("countries", "countries", "id", "", "id"),
		TableSource("ecological_tags", "ecological_tags", "id", "name", "name"),
		TableSource("data_origins", "data_origins", "id", "name", "id"),
		TableSource("reliabilities", "data_reliabilities", "id", "name", "id"),
		TableSource("verification_statuses", "verification_statuses", "id", "name", "id"),
		{Name: "scientific_names", Load: plugins.ScientificNameOptions},
		{Name: "publications", Load: plugins.PublicationOptions},
	}
}

// BionomicRecordDialog adds, edits and deletes one bionomic record. The
// distribution array is edited in memory and persisted with the record.
type BionomicRecordDialog struct {
	Dialog

	gw      gateway.Gateway
	audit   *audit.Writer
	session *session.Session

	mode    Mode
	target  int64
	draft   BionomicRecordDraft
	masters Masters
}

// NewBionomicRecordDialog creates a closed dialog acting as sess.
func NewBionomicRecordDialog(gw gateway.Gateway, w *audit.Writer, sess *session.Session) *BionomicRecordDialog {
	return &BionomicRecordDialog{gw: gw, audit: w, session: sess}
}

func (d *BionomicRecordDialog) Mode() Mode       { return d.mode }
func (d *BionomicRecordDialog) Masters() Masters { return d.masters }

// Draft returns a copy of the current draft.
func (d *BionomicRecordDialog) Draft() BionomicRecordDraft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneBionomicDraft(d.draft)
}

// OpenAdd opens an empty draft.
func (d *BionomicRecordDialog) OpenAdd(ctx context.Context, loadMasters bool) error {
	return d.open(ctx, func(ctx context.Context) error {
		d.mode, d.target = ModeAdd, 0
		d.draft = BionomicRecordDraft{Distribution: []domain.DistributionEntry{}}
		if loadMasters {
			d.masters = LoadMasters(ctx, d.gw, BionomicRecordMasterSources()...)
		}
		return nil
	})
}

// OpenEdit loads record id into the draft.
func (d *BionomicRecordDialog) OpenEdit(ctx context.Context, id int64, loadMasters bool) error {
	return d.open(ctx, func(ctx context.Context) error {
		draft, err := LoadBionomicRecordDraft(ctx, d.gw, id)
		if err != nil {
			return err
		}
		d.mode, d.target, d.draft = ModeEdit, id, draft
		if loadMasters {
			d.masters = LoadMasters(ctx, d.gw, BionomicRecordMasterSources()...)
		}
		return nil
	})
}

// Update replaces the draft while editing.
func (d *BionomicRecordDialog) Update(draft BionomicRecordDraft) error {
	return d.editing(func() error {
		d.draft = cloneBionomicDraft(draft)
		return nil
	})
}

// AddDistribution appends a locality to the draft.
func (d *BionomicRecordDialog) AddDistribution(in DistributionInput) error {
	entry, err := in.Entry()
	if err != nil {
		return err
	}
	return d.editing(func() error {
		next := make([]domain.DistributionEntry, 0, len(d.draft.Distribution)+1)
		next = append(next, d.draft.Distribution...)
		d.draft.Distribution = append(next, entry)
		return nil
	})
}

// EditDistribution replaces the locality at index.
func (d *BionomicRecordDialog) EditDistribution(index int, in DistributionInput) error {
	entry, err := in.Entry()
	if err != nil {
		return err
	}
	return d.editing(func() error {
		if index < 0 || index >= len(d.draft.Distribution) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		next := append([]domain.DistributionEntry(nil), d.draft.Distribution...)
		next[index] = entry
		d.draft.Distribution = next
		return nil
	})
}

// DeleteDistribution removes the locality at index.
func (d *BionomicRecordDialog) DeleteDistribution(index int) error {
	return d.editing(func() error {
		if index < 0 || index >= len(d.draft.Distribution) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		next := make([]domain.DistributionEntry, 0, len(d.draft.Distribution)-1)
		for i, e := range d.draft.Distribution {
			if i != index {
				next = append(next, e)
			}
		}
		d.draft.Distribution = next
		return nil
	})
}

// Save inserts or updates the record and writes an audit entry.
func (d *BionomicRecordDialog) Save(ctx context.Context) (Outcome, error) {
	return d.submit(ctx, func() error { return d.draft.Validate() }, func(ctx context.Context) (Outcome, error) {
		payload := d.draft.payload()
		if d.mode == ModeEdit {
			return d.saveEdit(ctx, payload)
		}
		inserted, err := d.gw.Insert(ctx, bionomicRecordsTable, payload)
		if err != nil {
			customLog.Warnf("Editor: insert of bionomic record failed: %v", err)
			return Outcome{}, fmt.Errorf("failed to add bionomic record: %w", err)
		}
		after := payload
		if len(inserted) > 0 {
			after = inserted[0]
		}
		return writeAudit(ctx, d.audit, d.session, bionomicRecordsTable, after.String("id"), audit.ActionInsert, nil, after), nil
	})
}

func (d *BionomicRecordDialog) saveEdit(ctx context.Context, payload domain.Record) (Outcome, error) {
	before, err := fetchRow(ctx, d.gw, bionomicRecordsTable, gateway.Eq("id", d.target))
	if err != nil {
		return Outcome{}, err
	}
	if _, err := d.gw.Update(ctx, bionomicRecordsTable, payload, gateway.Eq("id", d.target)); err != nil {
		customLog.Warnf("Editor: update of bionomic record %d failed: %v", d.target, err)
		return Outcome{}, fmt.Errorf("failed to update bionomic record: %w", err)
	}
	after := before.Merge(normalizeJSON(payload))
	return writeAudit(ctx, d.audit, d.session, bionomicRecordsTable, domain.Stringify(d.target), audit.ActionUpdate, before, after), nil
}

// Delete removes the edited record and records its last state.
func (d *BionomicRecordDialog) Delete(ctx context.Context) (Outcome, error) {
	if d.mode != ModeEdit {
		return Outcome{}, ErrNotEditMode
	}
	return d.submit(ctx, nil, func(ctx context.Context) (Outcome, error) {
		before, err := fetchRow(ctx, d.gw, bionomicRecordsTable, gateway.Eq("id", d.target))
		if err != nil {
			return Outcome{}, err
		}
		if _, err := d.gw.Delete(ctx, bionomicRecordsTable, gateway.Eq("id", d.target)); err != nil {
			customLog.Warnf("Editor: delete of bionomic record %d failed: %v", d.target, err)
			return Outcome{}, fmt.Errorf("failed to delete bionomic record: %w", err)
		}
		return writeAudit(ctx, d.audit, d.session, bionomicRecordsTable, domain.Stringify(d.target), audit.ActionDelete, before, nil), nil
	})
}

// LoadBionomicRecordDraft reads a stored record into a draft.
func LoadBionomicRecordDraft(ctx context.Context, gw gateway.Gateway, id int64) (BionomicRecordDraft, error) {
	row, err := fetchRow(ctx, gw, bionomicRecordsTable, gateway.Eq("id", id))
	if err != nil {
		return BionomicRecordDraft{}, err
	}
	rec, err := plugins.DecodeBionomicRecord(row)
	if err != nil {
		return BionomicRecordDraft{}, fmt.Errorf("decoding bionomic record %d: %w", id, err)
	}
	page := func(v *int64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatInt(*v, 10)
	}
	dist := rec.Distribution
	if dist == nil {
		dist = []domain.DistributionEntry{}
	}
	return BionomicRecordDraft{
		SourcePublicationID:  domain.Deref(rec.SourcePublicationID),
		PageStart:            page(rec.PageStart),
		PageEnd:              page(rec.PageEnd),
		TargetTaxaID:         rec.TargetTaxaID,
		DataType:             rec.DataType,
		EcologicalTags:       rec.EcologicalTags,
		HostTaxonID:          domain.Deref(rec.HostTaxonID),
		OtherRelatedTaxonID:  domain.Deref(rec.OtherRelatedTaxonID),
		Remark:               domain.Deref(rec.Remark),
		Distribution:         dist,
		DataOriginID:         domain.Deref(rec.DataOriginID),
		ReliabilityID:        domain.Deref(rec.ReliabilityID),
		VerificationStatusID: domain.Deref(rec.VerificationStatusID),
	}, nil
}

// normalizeJSON converts typed payload values to the shapes the gateway
// returns so before/after snapshots compare like for like.
func normalizeJSON(r domain.Record) domain.Record {
	out := r.Clone()
	if dist, ok := out["distribution"].([]domain.DistributionEntry); ok {
		items := make([]any, 0, len(dist))
		for _, e := range dist {
			item := map[string]any{
				"country": e.Country, "state": e.State, "city": e.City, "detail": e.Detail,
				"latitude": nil, "longitude": nil,
			}
			if e.Latitude != nil {
				item["latitude"] = *e.Latitude
			}
			if e.Longitude != nil {
				item["longitude"] = *e.Longitude
			}
			items = append(items, item)
		}
		out["distribution"] = items
	}
	return out
}

func cloneBionomicDraft(d BionomicRecordDraft) BionomicRecordDraft {
	d.EcologicalTags = append([]string(nil), d.EcologicalTags...)
	d.Distribution = append([]domain.DistributionEntry{}, d.Distribution...)
	return d
}
