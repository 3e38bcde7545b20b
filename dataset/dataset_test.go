package dataset

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() Dataset {
	return Dataset{
		ID:            "ds1",
		Name:          "electricity",
		SeriesCols:    []string{"B", "A"},
		TimestampCols: []string{"T"},
		OtherCols:     []string{"note"},
		MaxLength:     1000,
	}
}

func TestOpsetConfirmed(t *testing.T) {
	assert.False(t, Opset{}.Confirmed())
	assert.False(t, Opset{ID: UnsetID}.Confirmed())
	assert.True(t, Opset{ID: "5"}.Confirmed())
}

func TestDatasetWithOpsetDoesNotAlias(t *testing.T) {
	ds := testDataset()
	op := Opset{ID: "5", DatasetID: ds.ID, Plot: []string{"A"}, Offset: 1, Limit: 2}

	updated := ds.WithOpset(op)
	require.Len(t, updated.Ops, 1)
	assert.Empty(t, ds.Ops, "original dataset must not change")

	op.Plot[0] = "mutated"
	got, ok := updated.Opset()
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, got.Plot)

	got.Plot[0] = "mutated again"
	again, _ := updated.Opset()
	assert.Equal(t, []string{"A"}, again.Plot)

	updated.SeriesCols[0] = "Z"
	assert.Equal(t, "B", ds.SeriesCols[0])
}

func TestDatasetJSON(t *testing.T) {
	raw := `{
		"id": "ds1", "name": "n", "description": "d",
		"series_cols": ["A"], "timestamp_cols": ["T"], "other_cols": [],
		"max_length": 10,
		"ops": [{"id": "5", "dataset_id": "ds1", "plot": ["A"], "offset": 1, "limit": 9}]
	}`
	var ds Dataset
	require.NoError(t, json.Unmarshal([]byte(raw), &ds))
	assert.Equal(t, 10, ds.MaxLength)
	op, ok := ds.Opset()
	require.True(t, ok)
	assert.Equal(t, Opset{ID: "5", DatasetID: "ds1", Plot: []string{"A"}, Offset: 1, Limit: 9}, op)
}

func TestClassify(t *testing.T) {
	ds := testDataset()
	ds.TimestampCols = append(ds.TimestampCols, "A")

	tests := []struct {
		id   string
		want Category
	}{
		{"A", Series},
		{"B", Series},
		{"T", Time},
		{"note", Other},
		{"missing", Unknown},
		{SeriesCategoryID, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ds.Classify(tt.id))
			assert.Equal(t, tt.want == Series, ds.IsPlottable(tt.id))
		})
	}
}

func TestGroups(t *testing.T) {
	ds := testDataset()
	groups := ds.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, TimeCategoryID, groups[0].ID)
	assert.Equal(t, "Time Columns", groups[0].Label)
	assert.Equal(t, SeriesCategoryID, groups[1].ID)
	assert.Equal(t, []string{"B", "A"}, groups[1].Children)
	assert.Equal(t, OtherCategoryID, groups[2].ID)

	ds.OtherCols = nil
	groups = ds.Groups()
	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.NotEqual(t, Other, g.Category)
	}
}

func TestCategoryOf(t *testing.T) {
	c, ok := CategoryOf(OtherCategoryID)
	assert.True(t, ok)
	assert.Equal(t, Other, c)

	_, ok = CategoryOf("A")
	assert.False(t, ok)
	assert.True(t, IsCategoryID(TimeCategoryID))
	assert.Equal(t, "", Unknown.ID())
}

func TestPointKeys(t *testing.T) {
	p := Point{Timestamp: "t", Data: map[string]float64{"b": 1, "a": 2}}
	assert.Equal(t, []string{"a", "b"}, p.Keys())
	assert.Empty(t, Point{}.Keys())
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in     string
		ok     bool
		layout string
	}{
		{"2024-03-01T10:00:00Z", true, time.RFC3339Nano},
		{"2024-03-01 10:00:00", true, "2006-01-02 15:04:05"},
		{" 2024-03-01 ", true, "2006-01-02"},
		{"03/01/2024", true, "01/02/2006"},
		{"12.5", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, layout, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.layout, layout)
		})
	}
}
