package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/geo"
)

func ptr(f float64) *float64 { return &f }

func decimalInput(lat, lon string) DistributionInput {
	return DistributionInput{
		Country:   "Japan",
		City:      "Tokyo",
		Latitude:  geo.CoordinateInput{Format: geo.FormatDecimal, Decimal: lat},
		Longitude: geo.CoordinateInput{Format: geo.FormatDecimal, Decimal: lon},
	}
}

func storedRecord(t *testing.T, gw gateway.Gateway, id int64) domain.Record {
	t.Helper()
	row, err := fetchRow(context.Background(), gw, "bionomic_records", gateway.Eq("id", id))
	require.NoError(t, err)
	return row
}

func TestBionomicRecordDraftValidate(t *testing.T) {
	testCases := []struct {
		name  string
		draft BionomicRecordDraft
		want  []string
	}{
		{"valid", BionomicRecordDraft{TargetTaxaID: "Xus yus", DataType: DataTypeEcology, PageStart: "12", PageEnd: " 14 "}, nil},
		{"empty", BionomicRecordDraft{}, []string{"target_taxa_id", "data_type"}},
		{"unknown data type", BionomicRecordDraft{TargetTaxaID: "Xus yus", DataType: "habitat"}, []string{"data_type"}},
		{"non numeric page", BionomicRecordDraft{TargetTaxaID: "Xus yus", DataType: DataTypeDistribution, PageStart: "12a"}, []string{"page_start"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ElementsMatch(t, tc.want, keys(verr.Fields))
		})
	}
}

func TestDistributionInputEntry(t *testing.T) {
	t.Run("dms", func(t *testing.T) {
		entry, err := DistributionInput{
			Country:   " USA ",
			Latitude:  geo.CoordinateInput{Format: geo.FormatDMS, DMS: &geo.DMS{Deg: 35, Min: 30, Dir: "N"}},
			Longitude: geo.CoordinateInput{Format: geo.FormatDMS, DMS: &geo.DMS{Deg: 120, Dir: "W"}},
		}.Entry()
		require.NoError(t, err)
		assert.Equal(t, "USA", entry.Country)
		require.NotNil(t, entry.Latitude)
		require.NotNil(t, entry.Longitude)
		assert.InDelta(t, 35.5, *entry.Latitude, 1e-9)
		assert.InDelta(t, -120.0, *entry.Longitude, 1e-9)
	})

	t.Run("blank coordinates stay null", func(t *testing.T) {
		entry, err := decimalInput("", "").Entry()
		require.NoError(t, err)
		assert.Nil(t, entry.Latitude)
		assert.Nil(t, entry.Longitude)
	})

	t.Run("latitude beyond the pole", func(t *testing.T) {
		_, err := decimalInput("95", "10").Entry()
		assert.ErrorIs(t, err, geo.ErrOutOfRange)
	})

	t.Run("longitude beyond the antimeridian", func(t *testing.T) {
		_, err := decimalInput("10", "-181").Entry()
		assert.ErrorIs(t, err, geo.ErrOutOfRange)
	})
}

func TestBionomicRecordAdd(t *testing.T) {
	store := testStore(t)
	spy := newSpy(store)
	ctx := context.Background()

	d := NewBionomicRecordDialog(spy, audit.NewWriter(spy), curator)
	require.NoError(t, d.OpenAdd(ctx, true))
	assert.Empty(t, d.Masters().Failed)
	require.NoError(t, d.Update(BionomicRecordDraft{
		TargetTaxaID:   "Xus yus",
		DataType:       DataTypeEcology,
		EcologicalTags: []string{"t1", " "},
		PageStart:      "45",
	}))
	spy.Reset()

	out, err := d.Save(ctx)
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.True(t, out.AuditLogged)
	assert.Equal(t, "1", out.RowID)
	assert.Equal(t, []string{"insert:bionomic_records", "insert:audit_log"}, spy.Writes())

	row := storedRecord(t, store, 1)
	assert.Nil(t, row["distribution"], "an empty distribution is stored as null")
	assert.Equal(t, []any{"t1"}, row["ecological_tags"])
	assert.EqualValues(t, 45, row["page_start"])
	assert.Nil(t, row["page_end"])
}

func TestBionomicRecordDistributionEdit(t *testing.T) {
	store := testStore(t)
	a := domain.DistributionEntry{Country: "Japan", State: "Osaka", Latitude: ptr(34.7), Longitude: ptr(135.5)}
	b := domain.DistributionEntry{Country: "Japan", State: "Kyoto"}
	seed(t, store, "bionomic_records", domain.Record{
		"target_taxa_id": "Xus yus",
		"data_type":      DataTypeDistribution,
		"distribution":   []domain.DistributionEntry{a, b},
	})
	ctx := context.Background()

	d := NewBionomicRecordDialog(store, audit.NewWriter(store), curator)
	require.NoError(t, d.OpenEdit(ctx, 1, false))
	require.Len(t, d.Draft().Distribution, 2)

	require.NoError(t, d.AddDistribution(decimalInput("35.5", "139.7")))
	require.NoError(t, d.DeleteDistribution(1))
	assert.ErrorIs(t, d.DeleteDistribution(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.EditDistribution(-1, decimalInput("", "")), ErrIndexOutOfRange)

	dist := d.Draft().Distribution
	require.Len(t, dist, 2)
	assert.Equal(t, "Osaka", dist[0].State)
	assert.Equal(t, "Tokyo", dist[1].City)

	out, err := d.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, audit.ActionUpdate, out.Action)
	assert.Equal(t, []string{"distribution"}, audit.ChangedKeys(out.Diff))

	reloaded, err := LoadBionomicRecordDraft(ctx, store, 1)
	require.NoError(t, err)
	require.Len(t, reloaded.Distribution, 2)
	assert.Equal(t, "Osaka", reloaded.Distribution[0].State)
	require.NotNil(t, reloaded.Distribution[1].Latitude)
	assert.InDelta(t, 35.5, *reloaded.Distribution[1].Latitude, 1e-9)
	assert.InDelta(t, 139.7, *reloaded.Distribution[1].Longitude, 1e-9)

	assert.ErrorIs(t, d.AddDistribution(decimalInput("1", "1")), ErrNotEditing, "closed after saving")
}

func TestBionomicRecordDelete(t *testing.T) {
	store := testStore(t)
	seed(t, store, "bionomic_records", domain.Record{"target_taxa_id": "Xus yus", "data_type": DataTypeEcology})
	ctx := context.Background()

	add := NewBionomicRecordDialog(store, nil, curator)
	require.NoError(t, add.OpenAdd(ctx, false))
	_, err := add.Delete(ctx)
	assert.ErrorIs(t, err, ErrNotEditMode)

	d := NewBionomicRecordDialog(store, audit.NewWriter(store), curator)
	require.NoError(t, d.OpenEdit(ctx, 1, false))
	out, err := d.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, audit.ActionDelete, out.Action)
	assert.Equal(t, "1", out.RowID)

	_, err = LoadBionomicRecordDraft(ctx, store, 1)
	assert.ErrorIs(t, err, gateway.ErrRecordNotFound)

	entries, err := audit.NewWriter(store).List(ctx, "bionomic_records", "1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].AfterData)
	assert.Equal(t, "Xus yus", entries[0].BeforeData.String("target_taxa_id"))
}

func TestBionomicRecordOpenEditMissing(t *testing.T) {
	d := NewBionomicRecordDialog(testStore(t), nil, curator)
	err := d.OpenEdit(context.Background(), 42, false)
	assert.ErrorIs(t, err, gateway.ErrRecordNotFound)
	assert.Equal(t, StateClosed, d.State())
}
