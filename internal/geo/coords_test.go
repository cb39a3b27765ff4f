package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDMSToDecimal(t *testing.T) {
	testCases := []struct {
		name    string
		in      DMS
		want    float64
		wantErr error
	}{
		{"north half degree", DMS{Deg: 35, Min: 30, Sec: 0, Dir: "N"}, 35.5, nil},
		{"west whole degrees", DMS{Deg: 120, Min: 0, Sec: 0, Dir: "W"}, -120.0, nil},
		{"south with seconds", DMS{Deg: 33, Min: 51, Sec: 54, Dir: "s"}, -33.865, nil},
		{"negative degrees use magnitude", DMS{Deg: -10, Min: 15, Dir: "E"}, 10.25, nil},
		{"seconds only", DMS{Deg: 1, Min: 0, Sec: 36, Dir: "E"}, 1.01, nil},
		{"missing hemisphere", DMS{Deg: 35, Min: 30}, 0, ErrInvalidHemisphere},
		{"blank hemisphere", DMS{Deg: 35, Min: 30, Dir: " "}, 0, ErrInvalidHemisphere},
		{"bad hemisphere", DMS{Deg: 1, Dir: "Q"}, 0, ErrInvalidHemisphere},
		{"minutes out of range", DMS{Deg: 1, Min: 60, Dir: "N"}, 0, ErrOutOfRange},
		{"latitude beyond pole", DMS{Deg: 91, Dir: "N"}, 0, ErrOutOfRange},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.ToDecimal()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestCoordinateInputResolve(t *testing.T) {
	v, err := CoordinateInput{Format: FormatDecimal, Decimal: " 139.7 "}.Resolve()
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 139.7, *v)

	v, err = CoordinateInput{Decimal: ""}.Resolve()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = CoordinateInput{Format: "DMS", DMS: &DMS{Deg: 35, Min: 30, Dir: "N"}}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 35.5, *v)

	_, err = CoordinateInput{Decimal: "east"}.Resolve()
	assert.ErrorIs(t, err, ErrInvalidNumber)

	_, err = CoordinateInput{Format: "utm"}.Resolve()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
