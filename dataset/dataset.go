// Package dataset defines the catalog model shared by the viewer engine, the
// backend client and the backend service: datasets, their persisted query
// descriptors (opsets), time-series windows and forecasts.
package dataset

import (
	"maps"
	"slices"
)

// UnsetID is the descriptor id sent with a create request, before the backend
// has assigned a real one.
const UnsetID = "0"

// Opset is a persisted query descriptor: which series of a dataset to plot and
// which row window to retrieve.
type Opset struct {
	ID        string   `json:"id"`
	DatasetID string   `json:"dataset_id"`
	Plot      []string `json:"plot"`
	Offset    int      `json:"offset"`
	Limit     int      `json:"limit"`
}

// Confirmed reports whether the backend has assigned this descriptor an id.
func (o Opset) Confirmed() bool {
	return o.ID != "" && o.ID != UnsetID
}

// Clone returns a copy that shares no memory with o.
func (o Opset) Clone() Opset {
	o.Plot = slices.Clone(o.Plot)
	return o
}

// Dataset is an imported tabular time-series source with classified columns.
type Dataset struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	SeriesCols    []string `json:"series_cols"`
	TimestampCols []string `json:"timestamp_cols"`
	OtherCols     []string `json:"other_cols"`
	MaxLength     int      `json:"max_length"`
	Ops           []Opset  `json:"ops"`
}

// Opset returns the descriptor tracked for the dataset, which is always the
// first entry of Ops.
func (d Dataset) Opset() (Opset, bool) {
	if len(d.Ops) == 0 {
		return Opset{}, false
	}
	return d.Ops[0].Clone(), true
}

// WithOpset returns a copy of d whose sole descriptor is o.
func (d Dataset) WithOpset(o Opset) Dataset {
	c := d.Clone()
	c.Ops = []Opset{o.Clone()}
	return c
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	d.SeriesCols = slices.Clone(d.SeriesCols)
	d.TimestampCols = slices.Clone(d.TimestampCols)
	d.OtherCols = slices.Clone(d.OtherCols)
	if d.Ops != nil {
		ops := make([]Opset, len(d.Ops))
		for i, o := range d.Ops {
			ops[i] = o.Clone()
		}
		d.Ops = ops
	}
	return d
}

// Point is one row of a time-series window: a timestamp key plus the values
// of the plotted series at that row.
type Point struct {
	Timestamp string             `json:"timestamp"`
	Data      map[string]float64 `json:"data"`
}

// Keys returns the series ids present in p, sorted.
func (p Point) Keys() []string {
	return slices.Sorted(maps.Keys(p.Data))
}
