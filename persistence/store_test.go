package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tsview/dataset"
)

func testRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{Timestamp: "t" + string(rune('a'+i)), Values: map[string]float64{"A": float64(i)}}
	}
	return rows
}

func TestMemoryStoreDatasets(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ds := dataset.Dataset{ID: "b", Name: "power", SeriesCols: []string{"A"}, MaxLength: 5}
	require.NoError(t, store.PutDataset(ds, testRows(5)))
	require.NoError(t, store.PutDataset(dataset.Dataset{ID: "a", Name: "other"}, nil))

	list, err := store.ListDatasets()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.NotNil(t, list[1].Ops)

	got, err := store.GetDataset("b")
	require.NoError(t, err)
	assert.Equal(t, "power", got.Name)

	_, err = store.GetDataset("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreOpsets(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.PutDataset(dataset.Dataset{ID: "ds"}, testRows(3)))

	o, err := store.CreateOpset(dataset.Opset{ID: dataset.UnsetID, DatasetID: "ds", Plot: []string{"A"}, Limit: 3})
	require.NoError(t, err)
	assert.True(t, o.Confirmed())

	o.Offset = 1
	updated, err := store.UpdateOpset(o)
	require.NoError(t, err)
	assert.Equal(t, o, updated)

	ds, err := store.GetDataset("ds")
	require.NoError(t, err)
	require.Len(t, ds.Ops, 1)
	assert.Equal(t, 1, ds.Ops[0].Offset)

	_, err = store.CreateOpset(dataset.Opset{DatasetID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.UpdateOpset(dataset.Opset{ID: "999", DatasetID: "ds"})
	assert.ErrorIs(t, err, ErrNotFound)

	o.DatasetID = "other"
	_, err = store.UpdateOpset(o)
	assert.Error(t, err)
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.PutDataset(dataset.Dataset{ID: "ds"}, testRows(3)))
	o, err := store.CreateOpset(dataset.Opset{DatasetID: "ds"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDataset("ds"))
	_, err = store.GetOpset(o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Rows("ds", 0, 10)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteDataset("ds"), ErrNotFound)
}

func TestMemoryStoreRows(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.PutDataset(dataset.Dataset{ID: "ds"}, testRows(5)))

	rows, err := store.Rows("ds", 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, 2.0, rows[1].Values["A"])

	rows, err = store.Rows("ds", 4, 100)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = store.Rows("ds", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBounds(t *testing.T) {
	tests := []struct {
		n, offset, limit int
		lo, hi           int
	}{
		{10, 0, 5, 0, 5},
		{10, 8, 5, 8, 10},
		{10, 12, 5, 10, 10},
		{10, -3, 2, 0, 2},
		{10, 2, -1, 2, 2},
	}
	for _, tt := range tests {
		lo, hi := Bounds(tt.n, tt.offset, tt.limit)
		assert.Equal(t, tt.lo, lo)
		assert.Equal(t, tt.hi, hi)
	}
}
