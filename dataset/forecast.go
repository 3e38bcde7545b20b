package dataset

import "fmt"

// ForecastRequest asks the backend to project one series of a descriptor
// forward by Horizon rows.
type ForecastRequest struct {
	OpsetID  string `json:"opset_id"`
	SeriesID string `json:"series_id"`
	Horizon  int    `json:"horizon"`
}

// Forecast holds the three parallel sequences returned for one series.
type Forecast struct {
	SeriesID string
	Center   []Point
	Upper    []Point
	Lower    []Point
}

// NewForecast builds a Forecast from the wire layout [center, upper, lower].
func NewForecast(seriesID string, seqs [][]Point) (Forecast, error) {
	if len(seqs) != 3 {
		return Forecast{}, fmt.Errorf("forecast: want 3 sequences, got %d", len(seqs))
	}
	if len(seqs[1]) != len(seqs[0]) || len(seqs[2]) != len(seqs[0]) {
		return Forecast{}, fmt.Errorf("forecast: sequence lengths differ (%d, %d, %d)",
			len(seqs[0]), len(seqs[1]), len(seqs[2]))
	}
	return Forecast{
		SeriesID: seriesID,
		Center:   seqs[0],
		Upper:    seqs[1],
		Lower:    seqs[2],
	}, nil
}

// Sequences returns the wire layout [center, upper, lower].
func (f Forecast) Sequences() [][]Point {
	return [][]Point{f.Center, f.Upper, f.Lower}
}

// Len is the number of projected rows.
func (f Forecast) Len() int {
	return min(len(f.Center), len(f.Upper), len(f.Lower))
}

// Names of the pseudo-series a forecast adds to the display window.
func (f Forecast) CenterName() string { return f.SeriesID + "_forecast" }
func (f Forecast) UpperName() string  { return f.SeriesID + "_upper" }
func (f Forecast) LowerName() string  { return f.SeriesID + "_lower" }

// SeriesNames lists the pseudo-series in center, upper, lower order.
func (f Forecast) SeriesNames() []string {
	return []string{f.CenterName(), f.UpperName(), f.LowerName()}
}

// Points returns one display point per projected row carrying the three
// pseudo-series values. They are meant to be appended after the window.
func (f Forecast) Points() []Point {
	n := f.Len()
	out := make([]Point, 0, n)
	for i, c := range f.Center[:n] {
		out = append(out, Point{
			Timestamp: c.Timestamp,
			Data: map[string]float64{
				f.CenterName(): f.value(c),
				f.UpperName():  f.value(f.Upper[i]),
				f.LowerName():  f.value(f.Lower[i]),
			},
		})
	}
	return out
}

// value reads the series value from a forecast point, accepting points that
// carry a single unnamed value.
func (f Forecast) value(p Point) float64 {
	if v, ok := p.Data[f.SeriesID]; ok {
		return v
	}
	for _, v := range p.Data {
		return v
	}
	return 0
}
