// internal/audit/audit.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/logger"
	"github.com/Annany2002/taxacurator/internal/metrics"
	"github.com/Annany2002/taxacurator/internal/session"
)

var customLog = logger.NewLogger()

// Table is the append-only audit table.
const Table = "audit_log"

// Actions recorded in the audit log.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Diff returns the keys whose JSON encoding differs between before and after.
// A key missing on one side compares as null.
func Diff(before, after domain.Record) map[string]domain.FieldChange {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	diff := make(map[string]domain.FieldChange)
	for k := range keys {
		b, a := before[k], after[k]
		if sameJSON(b, a) {
			continue
		}
		diff[k] = domain.FieldChange{Before: b, After: a}
	}
	return diff
}

func sameJSON(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// ChangedKeys returns the sorted keys of a diff.
func ChangedKeys(diff map[string]domain.FieldChange) []string {
	keys := make([]string, 0, len(diff))
	for k := range diff {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Writer appends entries to the audit log through the gateway.
type Writer struct {
	gw  gateway.Gateway
	now func() time.Time
}

// NewWriter creates a Writer.
func NewWriter(gw gateway.Gateway) *Writer {
	return &Writer{gw: gw, now: time.Now}
}

// Write records one action on table/rowID attributed to sess. before is nil
// for inserts and after is nil for deletes.
func (w *Writer) Write(ctx context.Context, sess *session.Session, table, rowID, action string, before, after domain.Record) (domain.AuditEntry, error) {
	entry := domain.AuditEntry{
		ID:           uuid.NewString(),
		TableName:    table,
		RowID:        rowID,
		Action:       action,
		ActorID:      sess.ActorID(),
		ActorDisplay: sess.ActorDisplay(),
		CreatedAt:    w.now().UTC(),
		BeforeData:   before,
		AfterData:    after,
		Diff:         Diff(before, after),
	}

	row := domain.Record{
		"id":            entry.ID,
		"table_name":    entry.TableName,
		"row_id":        entry.RowID,
		"action":        entry.Action,
		"actor_id":      entry.ActorID,
		"actor_display": entry.ActorDisplay,
		"created_at":    entry.CreatedAt.Format(time.RFC3339),
		"before_data":   nilIfEmpty(before),
		"after_data":    nilIfEmpty(after),
		"diff":          entry.Diff,
	}
	_, err := w.gw.Insert(ctx, Table, row)
	metrics.AuditWritesTotal.WithLabelValues(action, metrics.Outcome(err)).Inc()
	if err != nil {
		customLog.Warnf("Audit: failed to record %s on %s/%s: %v", action, table, rowID, err)
		return entry, fmt.Errorf("failed to write audit entry: %w", err)
	}
	customLog.WithFields(map[string]any{
		"table":   table,
		"row_id":  rowID,
		"action":  action,
		"changed": ChangedKeys(entry.Diff),
	}).Debug("Audit: entry recorded")
	return entry, nil
}

// List returns the newest entries, optionally narrowed to one table and row.
func (w *Writer) List(ctx context.Context, table, rowID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	q := gateway.Query{
		Table: Table,
		Order: []gateway.Order{{Column: "created_at", Ascending: false}},
		Range: &gateway.Range{From: 0, To: limit - 1},
	}
	if table != "" {
		q.Eq = append(q.Eq, gateway.Eq("table_name", table))
	}
	if rowID != "" {
		q.Eq = append(q.Eq, gateway.Eq("row_id", rowID))
	}
	res, err := w.gw.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]domain.AuditEntry, 0, len(res.Rows))
	for _, r := range res.Rows {
		created, _ := time.Parse(time.RFC3339, r.String("created_at"))
		entries = append(entries, domain.AuditEntry{
			ID:           r.String("id"),
			TableName:    r.String("table_name"),
			RowID:        r.String("row_id"),
			Action:       r.String("action"),
			ActorID:      r.String("actor_id"),
			ActorDisplay: r.String("actor_display"),
			CreatedAt:    created,
			BeforeData:   asRecord(r["before_data"]),
			AfterData:    asRecord(r["after_data"]),
			Diff:         asDiff(r["diff"]),
		})
	}
	return entries, nil
}

func nilIfEmpty(r domain.Record) any {
	if r == nil {
		return nil
	}
	return r
}

func asRecord(v any) domain.Record {
	switch m := v.(type) {
	case map[string]any:
		return domain.Record(m)
	case domain.Record:
		return m
	}
	return nil
}

func asDiff(v any) map[string]domain.FieldChange {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]domain.FieldChange, len(m))
	for k, raw := range m {
		change, _ := raw.(map[string]any)
		out[k] = domain.FieldChange{Before: change["before"], After: change["after"]}
	}
	return out
}
