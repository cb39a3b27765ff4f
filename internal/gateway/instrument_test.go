package gateway

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/metrics"
)

func TestInstrumentCountsCalls(t *testing.T) {
	gw := Instrument(testStore(t), "instrument-test")
	ctx := context.Background()

	calls := func(op, target, outcome string) float64 {
		return testutil.ToFloat64(metrics.GatewayCallsTotal.WithLabelValues("instrument-test", op, target, outcome))
	}

	_, err := gw.Insert(ctx, "researchers", domain.Record{"id": "r1", "last_name": "Smith"})
	require.NoError(t, err)
	res, err := gw.Select(ctx, Query{Table: "researchers", Count: true})
	require.NoError(t, err)
	require.NotNil(t, res.Count)
	assert.Equal(t, 1, *res.Count)

	_, err = gw.Select(ctx, Query{Table: "no_such_table"})
	require.Error(t, err)

	assert.Equal(t, 1.0, calls("insert", "researchers", metrics.OutcomeSuccess))
	assert.Equal(t, 1.0, calls("select", "researchers", metrics.OutcomeSuccess))
	assert.Equal(t, 1.0, calls("select", "no_such_table", metrics.OutcomeError))
}
