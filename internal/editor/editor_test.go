package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/session"
)

var curator = &session.Session{UserID: "admin-1", Email: "curator@example.org", DisplayName: "Curator"}

// spyGateway records every call and can fail writes to chosen tables.
type spyGateway struct {
	gateway.Gateway

	mu        sync.Mutex
	calls     []string
	failWrite map[string]error
}

func newSpy(gw gateway.Gateway) *spyGateway {
	return &spyGateway{Gateway: gw, failWrite: map[string]error{}}
}

func (s *spyGateway) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *spyGateway) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *spyGateway) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *spyGateway) Writes() []string {
	var out []string
	for _, c := range s.Calls() {
		if len(c) > 7 && c[:7] == "select:" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *spyGateway) Select(ctx context.Context, q gateway.Query) (gateway.Result, error) {
	s.record("select:" + q.Table)
	return s.Gateway.Select(ctx, q)
}

func (s *spyGateway) Insert(ctx context.Context, table string, rows ...domain.Record) ([]domain.Record, error) {
	s.record("insert:" + table)
	if err := s.failWrite[table]; err != nil {
		return nil, err
	}
	return s.Gateway.Insert(ctx, table, rows...)
}

func (s *spyGateway) Update(ctx context.Context, table string, patch domain.Record, filters ...gateway.Filter) (int64, error) {
	s.record("update:" + table)
	if err := s.failWrite[table]; err != nil {
		return 0, err
	}
	return s.Gateway.Update(ctx, table, patch, filters...)
}

func (s *spyGateway) Delete(ctx context.Context, table string, filters ...gateway.Filter) (int64, error) {
	s.record("delete:" + table)
	if err := s.failWrite[table]; err != nil {
		return 0, err
	}
	return s.Gateway.Delete(ctx, table, filters...)
}

func testStore(t *testing.T) *gateway.SQLiteStore {
	t.Helper()
	store, err := gateway.ConnectSQLite(context.Background(), t.TempDir(), "editor.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, gw gateway.Gateway, table string, rows ...domain.Record) {
	t.Helper()
	_, err := gw.Insert(context.Background(), table, rows...)
	require.NoError(t, err)
}

func TestDialogStateMachine(t *testing.T) {
	ctx := context.Background()
	var d Dialog
	assert.Equal(t, StateClosed, d.State())
	assert.ErrorIs(t, d.Cancel(), ErrNotEditing)

	var seen State
	require.NoError(t, d.open(ctx, func(context.Context) error {
		seen = d.State()
		return nil
	}))
	assert.Equal(t, StateLoadingMasters, seen)
	assert.Equal(t, StateEditing, d.State())
	assert.ErrorIs(t, d.open(ctx, nil), ErrAlreadyOpen)

	t.Run("validation failure stays editing without saving", func(t *testing.T) {
		called := false
		_, err := d.submit(ctx, func() error { return &ValidationError{Fields: map[string]string{"id": "is required"}} },
			func(context.Context) (Outcome, error) { called = true; return Outcome{}, nil })
		assert.ErrorIs(t, err, ErrValidation)
		assert.False(t, called)
		assert.Equal(t, StateEditing, d.State())
	})

	t.Run("save failure returns to editing", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := d.submit(ctx, nil, func(context.Context) (Outcome, error) {
			assert.Equal(t, StateSubmitting, d.State())
			return Outcome{}, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, StateEditing, d.State())
		assert.ErrorIs(t, d.LastError(), boom)
		assert.False(t, d.Saved())
	})

	t.Run("success closes saved", func(t *testing.T) {
		out, err := d.submit(ctx, nil, func(context.Context) (Outcome, error) { return Outcome{Action: "insert"}, nil })
		require.NoError(t, err)
		assert.True(t, out.Saved)
		assert.Equal(t, StateClosed, d.State())
		assert.True(t, d.Saved())
		_, err = d.submit(ctx, nil, func(context.Context) (Outcome, error) { return Outcome{}, nil })
		assert.ErrorIs(t, err, ErrNotEditing)
	})

	t.Run("cancel closes unsaved", func(t *testing.T) {
		require.NoError(t, d.open(ctx, nil))
		require.NoError(t, d.Cancel())
		assert.Equal(t, StateClosed, d.State())
		assert.False(t, d.Saved())
	})

	t.Run("failed load closes", func(t *testing.T) {
		err := d.open(ctx, func(context.Context) error { return gateway.ErrRecordNotFound })
		assert.ErrorIs(t, err, gateway.ErrRecordNotFound)
		assert.Equal(t, StateClosed, d.State())
	})
}

func TestLoadMastersToleratesFailures(t *testing.T) {
	store := testStore(t)
	seed(t, store, "rank", domain.Record{"id": "species"}, domain.Record{"id": "genus"})
	seed(t, store, "ecological_tags", domain.Record{"id": "t2", "name": "forest"}, domain.Record{"id": "t1", "name": "litter"})

	masters := LoadMasters(context.Background(), store,
		TableSource("ranks", "rank", "id", "", "id"),
		TableSource("ecological_tags", "ecological_tags", "id", "name", "name"),
		TableSource("missing", "no_such_table", "id", "", "id"),
		MasterSource{Name: "broken", Load: func(context.Context, gateway.Gateway) ([]domain.Option, error) {
			return nil, errors.New("offline")
		}},
	)

	assert.Equal(t, []domain.Option{{ID: "genus", Label: "genus"}, {ID: "species", Label: "species"}}, masters.Lists["ranks"])
	assert.Equal(t, []domain.Option{{ID: "t2", Label: "forest"}, {ID: "t1", Label: "litter"}}, masters.Lists["ecological_tags"])
	assert.Equal(t, []string{"broken", "missing"}, masters.Failed)
	assert.NotNil(t, masters.Lists["broken"])
	assert.Empty(t, masters.Lists["broken"])
	assert.True(t, masters.Contains("ranks", "genus"))
	assert.False(t, masters.Contains("ranks", "tribe"))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "is required", "a": "must be a 4-digit year"}}
	assert.Equal(t, "validation failed: a: must be a 4-digit year; b: is required", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestWriteAuditReportsFailure(t *testing.T) {
	store := testStore(t)
	spy := newSpy(store)
	spy.failWrite[audit.Table] = gateway.ErrGateway

	out := writeAudit(context.Background(), audit.NewWriter(spy), curator, "scientific_names", "Xus", audit.ActionDelete,
		domain.Record{"id": "Xus"}, nil)
	assert.False(t, out.AuditLogged)
	assert.Contains(t, out.Diff, "id")

	spy.failWrite = map[string]error{}
	out = writeAudit(context.Background(), audit.NewWriter(spy), curator, "scientific_names", "Xus", audit.ActionDelete,
		domain.Record{"id": "Xus"}, nil)
	assert.True(t, out.AuditLogged)

	entries, err := audit.NewWriter(store).List(context.Background(), "scientific_names", "Xus", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Curator", entries[0].ActorDisplay)
	assert.WithinDuration(t, time.Now(), entries[0].CreatedAt, time.Minute)
}
