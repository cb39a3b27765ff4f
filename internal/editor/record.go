// internal/editor/record.go
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/session"
)

// FieldKind is the stored type of an entity field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldBool
)

// EntityField is one editable column. Rules are validator tags applied to
// text values.
type EntityField struct {
	Column string
	Kind   FieldKind
	Rules  string
}

// EntitySchema describes a catalogue table edited through a RecordDialog.
type EntitySchema struct {
	Name  string
	Label string
	Table string
	Key   string
	// GenerateKey assigns a random UUID to an added row left without a key.
	GenerateKey bool
	Fields      []EntityField
	Authors     *LinkTable
	Masters     func() []MasterSource
}

func (s EntitySchema) field(column string) (EntityField, bool) {
	for _, f := range s.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return EntityField{}, false
}

// RecordDraft is the editable form of one entity row. Fields is keyed by
// column; Authors holds researcher ids in order when the entity has authors.
type RecordDraft struct {
	ID      string         `json:"id"`
	Fields  map[string]any `json:"fields"`
	Authors []string       `json:"authors,omitempty"`
}

// Validate checks draft against the schema and returns a *ValidationError
// keyed by column on failure.
func (s EntitySchema) Validate(mode Mode, draft RecordDraft) error {
	errs := map[string]string{}
	if strings.TrimSpace(draft.ID) == "" && (mode == ModeEdit || !s.GenerateKey) {
		errs["id"] = tagMessages["required"]
	}
	for column := range draft.Fields {
		if _, ok := s.field(column); !ok {
			errs[column] = "is not an editable field"
		}
	}
	for _, f := range s.Fields {
		value := draft.Fields[f.Column]
		switch f.Kind {
		case FieldBool:
			if _, ok := value.(bool); value != nil && !ok {
				errs[f.Column] = "must be true or false"
			}
		default:
			text, ok := textValue(value)
			if !ok {
				errs[f.Column] = "must be text"
				continue
			}
			if f.Rules == "" {
				continue
			}
			if err := validate.Var(strings.TrimSpace(text), f.Rules); err != nil {
				var verrs validator.ValidationErrors
				if errors.As(err, &verrs) && len(verrs) > 0 {
					errs[f.Column] = fieldMessage(verrs[0])
				} else {
					errs[f.Column] = err.Error()
				}
			}
		}
	}
	if s.Authors != nil {
		seen := map[string]bool{}
		for _, id := range draft.Authors {
			id = strings.TrimSpace(id)
			if id != "" && seen[id] {
				errs["authors"] = tagMessages["unique"]
			}
			seen[id] = true
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// payload maps every schema field to its stored value. Blank text is stored
// as null and a missing flag as false.
func (s EntitySchema) payload(draft RecordDraft) domain.Record {
	out := make(domain.Record, len(s.Fields))
	for _, f := range s.Fields {
		value := draft.Fields[f.Column]
		switch f.Kind {
		case FieldBool:
			b, _ := value.(bool)
			out[f.Column] = b
		default:
			text, _ := textValue(value)
			out[f.Column] = nullable(text)
		}
	}
	return out
}

func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64, int, int64:
		return domain.Stringify(t), true
	}
	return "", false
}

// RecordDialog adds, edits and deletes one row of a schema-described table.
type RecordDialog struct {
	Dialog

	schema  EntitySchema
	gw      gateway.Gateway
	audit   *audit.Writer
	session *session.Session

	mode    Mode
	target  string
	draft   RecordDraft
	masters Masters
}

// NewRecordDialog creates a closed dialog for schema acting as sess.
func NewRecordDialog(schema EntitySchema, gw gateway.Gateway, w *audit.Writer, sess *session.Session) *RecordDialog {
	return &RecordDialog{schema: schema, gw: gw, audit: w, session: sess}
}

func (d *RecordDialog) Mode() Mode           { return d.mode }
func (d *RecordDialog) Masters() Masters     { return d.masters }
func (d *RecordDialog) Schema() EntitySchema { return d.schema }

// Draft returns a copy of the current draft.
func (d *RecordDialog) Draft() RecordDraft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneRecordDraft(d.draft)
}

func (d *RecordDialog) loadMasters(ctx context.Context) {
	if d.schema.Masters != nil {
		d.masters = LoadMasters(ctx, d.gw, d.schema.Masters()...)
	}
}

// OpenAdd opens an empty draft.
func (d *RecordDialog) OpenAdd(ctx context.Context, loadMasters bool) error {
	return d.open(ctx, func(ctx context.Context) error {
		d.mode, d.target = ModeAdd, ""
		d.draft = RecordDraft{Fields: map[string]any{}}
		if loadMasters {
			d.loadMasters(ctx)
		}
		return nil
	})
}

// OpenEdit loads row id, and its authors when the entity has them.
func (d *RecordDialog) OpenEdit(ctx context.Context, id string, loadMasters bool) error {
	return d.open(ctx, func(ctx context.Context) error {
		draft, err := LoadRecordDraft(ctx, d.gw, d.schema, id)
		if err != nil {
			return err
		}
		d.mode, d.target, d.draft = ModeEdit, id, draft
		if loadMasters {
			d.loadMasters(ctx)
		}
		return nil
	})
}

// Update replaces the draft while editing. In edit mode the key stays fixed.
func (d *RecordDialog) Update(draft RecordDraft) error {
	return d.editing(func() error {
		if d.mode == ModeEdit {
			draft.ID = d.target
		}
		d.draft = cloneRecordDraft(draft)
		return nil
	})
}

// Save inserts or updates the row, syncs its authors and writes an audit entry.
func (d *RecordDialog) Save(ctx context.Context) (Outcome, error) {
	return d.submit(ctx, func() error { return d.schema.Validate(d.mode, d.draft) }, func(ctx context.Context) (Outcome, error) {
		if d.mode == ModeEdit {
			return d.saveEdit(ctx)
		}
		return d.saveAdd(ctx)
	})
}

func (d *RecordDialog) saveAdd(ctx context.Context) (Outcome, error) {
	s := d.schema
	id := strings.TrimSpace(d.draft.ID)
	if id == "" {
		id = uuid.NewString()
	} else {
		dup, err := d.gw.Select(ctx, gateway.Query{
			Table:  s.Table,
			Select: s.Key,
			Eq:     []gateway.Filter{gateway.Eq(s.Key, id)},
			Range:  &gateway.Range{From: 0, To: 0},
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to check for duplicate ID: %w", err)
		}
		if len(dup.Rows) > 0 {
			customLog.Printf("Editor: rejected %s %q: id already exists", s.Label, id)
			return Outcome{}, fmt.Errorf("%w: %s. Please use a unique ID", ErrDuplicateID, id)
		}
	}

	row := s.payload(d.draft)
	row[s.Key] = id
	if _, err := d.gw.Insert(ctx, s.Table, row); err != nil {
		customLog.Warnf("Editor: insert of %s %q failed: %v", s.Label, id, err)
		return Outcome{}, fmt.Errorf("failed to add %s: %w", s.Label, err)
	}
	if s.Authors != nil {
		if err := s.Authors.Sync(ctx, d.gw, id, d.draft.Authors); err != nil {
			return Outcome{}, err
		}
	}
	return writeAudit(ctx, d.audit, d.session, s.Table, id, audit.ActionInsert, nil, d.withAuthors(row)), nil
}

func (d *RecordDialog) saveEdit(ctx context.Context) (Outcome, error) {
	s := d.schema
	before, err := fetchRow(ctx, d.gw, s.Table, gateway.Eq(s.Key, d.target))
	if err != nil {
		return Outcome{}, err
	}
	beforeAuthors := d.currentAuthors(ctx)

	patch := s.payload(d.draft)
	if _, err := d.gw.Update(ctx, s.Table, patch, gateway.Eq(s.Key, d.target)); err != nil {
		customLog.Warnf("Editor: update of %s %q failed: %v", s.Label, d.target, err)
		return Outcome{}, fmt.Errorf("failed to update %s: %w", s.Label, err)
	}
	if s.Authors != nil {
		if err := s.Authors.Sync(ctx, d.gw, d.target, d.draft.Authors); err != nil {
			return Outcome{}, err
		}
		before = before.Clone()
		before["authors"] = beforeAuthors
	}
	after := d.withAuthors(before.Merge(patch))
	return writeAudit(ctx, d.audit, d.session, s.Table, d.target, audit.ActionUpdate, before, after), nil
}

// Delete removes the edited row after its author links.
func (d *RecordDialog) Delete(ctx context.Context) (Outcome, error) {
	if d.mode != ModeEdit {
		return Outcome{}, ErrNotEditMode
	}
	s := d.schema
	return d.submit(ctx, nil, func(ctx context.Context) (Outcome, error) {
		before, err := fetchRow(ctx, d.gw, s.Table, gateway.Eq(s.Key, d.target))
		if err != nil {
			return Outcome{}, err
		}
		if s.Authors != nil {
			before = before.Clone()
			before["authors"] = d.currentAuthors(ctx)
			if err := s.Authors.Clear(ctx, d.gw, d.target); err != nil {
				return Outcome{}, err
			}
		}
		if _, err := d.gw.Delete(ctx, s.Table, gateway.Eq(s.Key, d.target)); err != nil {
			customLog.Warnf("Editor: delete of %s %q failed: %v", s.Label, d.target, err)
			return Outcome{}, fmt.Errorf("failed to delete %s: %w", s.Label, err)
		}
		return writeAudit(ctx, d.audit, d.session, s.Table, d.target, audit.ActionDelete, before, nil), nil
	})
}

func (d *RecordDialog) currentAuthors(ctx context.Context) []any {
	ids, err := d.schema.Authors.Load(ctx, d.gw, d.target)
	if err != nil {
		customLog.Warnf("Editor: authors of %s %q unavailable: %v", d.schema.Label, d.target, err)
	}
	return stringsAsAny(ids)
}

// withAuthors adds the draft's author list to a snapshot of an entity with authors.
func (d *RecordDialog) withAuthors(r domain.Record) domain.Record {
	if d.schema.Authors == nil {
		return r
	}
	out := r.Clone()
	out["authors"] = stringsAsAny(nonEmpty(d.draft.Authors))
	return out
}

// LoadRecordDraft reads row id of schema into a draft.
func LoadRecordDraft(ctx context.Context, gw gateway.Gateway, schema EntitySchema, id string) (RecordDraft, error) {
	row, err := fetchRow(ctx, gw, schema.Table, gateway.Eq(schema.Key, id))
	if err != nil {
		return RecordDraft{}, err
	}
	draft := RecordDraft{ID: row.String(schema.Key), Fields: make(map[string]any, len(schema.Fields))}
	for _, f := range schema.Fields {
		switch f.Kind {
		case FieldBool:
			draft.Fields[f.Column] = row.Bool(f.Column)
		default:
			draft.Fields[f.Column] = row.String(f.Column)
		}
	}
	if schema.Authors != nil {
		draft.Authors, err = schema.Authors.Load(ctx, gw, id)
		if err != nil {
			customLog.Warnf("Editor: authors of %s %q unavailable: %v", schema.Label, id, err)
		}
	}
	return draft, nil
}

func stringsAsAny(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}

func cloneRecordDraft(d RecordDraft) RecordDraft {
	fields := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	d.Fields = fields
	d.Authors = append([]string(nil), d.Authors...)
	return d
}
