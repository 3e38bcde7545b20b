package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(series string, vals ...float64) []Point {
	out := make([]Point, len(vals))
	for i, v := range vals {
		out[i] = Point{Timestamp: string(rune('a' + i)), Data: map[string]float64{series: v}}
	}
	return out
}

func TestNewForecastValidatesShape(t *testing.T) {
	_, err := NewForecast("A", [][]Point{seq("A", 1)})
	assert.Error(t, err)

	_, err = NewForecast("A", [][]Point{seq("A", 1, 2), seq("A", 1), seq("A", 1, 2)})
	assert.Error(t, err)

	f, err := NewForecast("A", [][]Point{seq("A", 1, 2), seq("A", 2, 3), seq("A", 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Len(t, f.Sequences(), 3)
}

func TestForecastPoints(t *testing.T) {
	f, err := NewForecast("A", [][]Point{seq("A", 1, 2), seq("A", 2, 3), seq("x", 0, 1)})
	require.NoError(t, err)

	pts := f.Points()
	require.Len(t, pts, 2)
	assert.Equal(t, "a", pts[0].Timestamp)
	assert.Equal(t, map[string]float64{"A_forecast": 1, "A_upper": 2, "A_lower": 0}, pts[0].Data)
	assert.Equal(t, []string{"A_forecast", "A_upper", "A_lower"}, f.SeriesNames())
}
