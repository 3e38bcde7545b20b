package forecast

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tsview/persistence"
)

func rows(offset int, stamp func(i int) string, values ...float64) []persistence.Row {
	out := make([]persistence.Row, len(values))
	for i, v := range values {
		out[i] = persistence.Row{
			Index:     offset + i,
			Timestamp: stamp(offset + i),
			Values:    map[string]float64{"A": v},
		}
	}
	return out
}

func byIndex(i int) string { return strconv.Itoa(i) }

func TestLinearExactLine(t *testing.T) {
	history := rows(10, byIndex, 1, 3, 5, 7)

	f, err := Linear{}.Forecast(history, "A", 3)
	require.NoError(t, err)
	require.Equal(t, 3, f.Len())

	for i, want := range []float64{9, 11, 13} {
		assert.InDelta(t, want, f.Center[i].Data["A"], 1e-9)
		assert.InDelta(t, want, f.Upper[i].Data["A"], 1e-9, "perfect fit has no band")
		assert.InDelta(t, want, f.Lower[i].Data["A"], 1e-9)
	}
	assert.Equal(t, "14", f.Center[0].Timestamp)
	assert.Equal(t, "16", f.Lower[2].Timestamp)
}

func TestLinearBand(t *testing.T) {
	history := rows(0, byIndex, 1, 4, 2, 5, 3, 6)

	f, err := Linear{Z: 2}.Forecast(history, "A", 2)
	require.NoError(t, err)
	for i := range f.Len() {
		c := f.Center[i].Data["A"]
		assert.Greater(t, f.Upper[i].Data["A"], c)
		assert.InDelta(t, c-f.Lower[i].Data["A"], f.Upper[i].Data["A"]-c, 1e-9)
	}
}

func TestLinearTimestampStep(t *testing.T) {
	stamp := func(i int) string { return "2024-01-0" + strconv.Itoa(i+1) }
	history := rows(0, stamp, 1, 2, 3)

	f, err := Linear{}.Forecast(history, "A", 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-04", f.Center[0].Timestamp)
	assert.Equal(t, "2024-01-05", f.Center[1].Timestamp)
}

func TestLinearSingleValueIsFlat(t *testing.T) {
	f, err := Linear{}.Forecast(rows(0, byIndex, 4), "A", 2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, f.Center[1].Data["A"])
}

func TestLinearErrors(t *testing.T) {
	_, err := Linear{}.Forecast(rows(0, byIndex, 1, 2), "missing", 2)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Linear{}.Forecast(rows(0, byIndex, 1, 2), "A", 0)
	assert.Error(t, err)
}
