package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/session"
)

func TestDiff(t *testing.T) {
	testCases := []struct {
		name   string
		before domain.Record
		after  domain.Record
		want   map[string]domain.FieldChange
	}{
		{
			name:   "changed and added keys",
			before: domain.Record{"a": 1, "b": 2},
			after:  domain.Record{"a": 1, "b": 3, "c": 4},
			want: map[string]domain.FieldChange{
				"b": {Before: 2, After: 3},
				"c": {Before: nil, After: 4},
			},
		},
		{
			name:   "insert has no before",
			before: nil,
			after:  domain.Record{"id": "Xus yus"},
			want:   map[string]domain.FieldChange{"id": {Before: nil, After: "Xus yus"}},
		},
		{
			name:   "delete has no after",
			before: domain.Record{"id": "Xus yus"},
			after:  nil,
			want:   map[string]domain.FieldChange{"id": {Before: "Xus yus", After: nil}},
		},
		{
			name:   "numeric types compare by encoding",
			before: domain.Record{"n": int64(3), "tags": []string{"a"}},
			after:  domain.Record{"n": float64(3), "tags": []any{"a"}},
			want:   map[string]domain.FieldChange{},
		},
		{
			name:   "explicit null equals absent",
			before: domain.Record{"remark": nil},
			after:  domain.Record{},
			want:   map[string]domain.FieldChange{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Diff(tc.before, tc.after))
		})
	}
}

func TestWriterRecordsEntry(t *testing.T) {
	store, err := gateway.ConnectSQLite(context.Background(), t.TempDir(), "audit.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	w := NewWriter(store)
	w.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	sess := &session.Session{UserID: "admin-1", Email: "curator@example.org", DisplayName: "Curator"}
	ctx := context.Background()

	entry, err := w.Write(ctx, sess, "scientific_names", "Xus yus", ActionUpdate,
		domain.Record{"id": "Xus yus", "page": "12"},
		domain.Record{"id": "Xus yus", "page": "13"})
	require.NoError(t, err)
	assert.Equal(t, "Curator", entry.ActorDisplay)
	assert.Equal(t, []string{"page"}, ChangedKeys(entry.Diff))

	_, err = w.Write(ctx, sess, "scientific_names", "Xus zus", ActionDelete, domain.Record{"id": "Xus zus"}, nil)
	require.NoError(t, err)

	entries, err := w.List(ctx, "scientific_names", "Xus yus", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0]
	assert.Equal(t, ActionUpdate, got.Action)
	assert.Equal(t, "admin-1", got.ActorID)
	assert.Equal(t, "13", got.AfterData.String("page"))
	assert.Equal(t, "12", got.Diff["page"].Before)
	assert.True(t, got.CreatedAt.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))

	all, err := w.List(ctx, "", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, e := range all {
		if e.Action == ActionDelete {
			assert.Nil(t, e.AfterData)
		}
	}
}

func TestWriterReportsFailure(t *testing.T) {
	store, err := gateway.ConnectSQLite(context.Background(), t.TempDir(), "audit.db")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewWriter(store).Write(context.Background(), nil, "scientific_names", "x", ActionInsert, nil, domain.Record{"id": "x"})
	assert.Error(t, err)
}
