package sqlitestore

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/persistence"
)

func testDataset(id string) dataset.Dataset {
	return dataset.Dataset{
		ID:            id,
		Name:          "power " + id,
		Description:   "meter readings",
		SeriesCols:    []string{"A", "B"},
		TimestampCols: []string{"T"},
		OtherCols:     []string{"note"},
		MaxLength:     4,
	}
}

func testRows(n int) []persistence.Row {
	rows := make([]persistence.Row, n)
	for i := range rows {
		rows[i] = persistence.Row{
			Timestamp: "2024-01-0" + strconv.Itoa(i+1),
			Values:    map[string]float64{"A": float64(i), "B": float64(10 * i)},
		}
	}
	return rows
}

func TestSQLiteStoreDatasets(t *testing.T) {
	// Use in-memory database for testing
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	list, err := store.ListDatasets()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.PutDataset(testDataset("b"), testRows(4)))
	require.NoError(t, store.PutDataset(testDataset("a"), nil))

	list, err = store.ListDatasets()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	got, err := store.GetDataset("b")
	require.NoError(t, err)
	want := testDataset("b")
	want.Ops = []dataset.Opset{}
	assert.Equal(t, want, got)

	// Test getting non-existent dataset
	_, err = store.GetDataset("missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSQLiteStoreOpsets(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutDataset(testDataset("ds"), testRows(4)))

	created, err := store.CreateOpset(dataset.Opset{ID: dataset.UnsetID, DatasetID: "ds", Plot: []string{"A"}, Limit: 4})
	require.NoError(t, err)
	assert.True(t, created.Confirmed())
	assert.Equal(t, []string{"A"}, created.Plot)

	created.Plot = []string{"A", "B"}
	created.Offset = 1
	created.Limit = 2
	updated, err := store.UpdateOpset(created)
	require.NoError(t, err)
	assert.Equal(t, created, updated)

	ds, err := store.GetDataset("ds")
	require.NoError(t, err)
	require.Len(t, ds.Ops, 1)
	assert.Equal(t, updated, ds.Ops[0])

	empty, err := store.CreateOpset(dataset.Opset{DatasetID: "ds"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, empty.Plot)
	assert.NotEqual(t, created.ID, empty.ID)

	_, err = store.CreateOpset(dataset.Opset{DatasetID: "missing"})
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = store.UpdateOpset(dataset.Opset{ID: "999", DatasetID: "ds"})
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = store.GetOpset("not-a-number")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	moved := updated
	moved.DatasetID = "other"
	_, err = store.UpdateOpset(moved)
	assert.Error(t, err)
}

func TestSQLiteStoreRows(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutDataset(testDataset("ds"), testRows(4)))

	rows, err := store.Rows("ds", 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, "2024-01-02", rows[0].Timestamp)
	assert.Equal(t, 20.0, rows[1].Values["B"])

	rows, err = store.Rows("ds", 3, 100)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = store.Rows("ds", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = store.Rows("missing", 0, 2)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSQLiteStoreReplaceAndDelete(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutDataset(testDataset("ds"), testRows(4)))
	o, err := store.CreateOpset(dataset.Opset{DatasetID: "ds", Plot: []string{"A"}})
	require.NoError(t, err)

	// Replacing a dataset drops its rows and descriptors
	require.NoError(t, store.PutDataset(testDataset("ds"), testRows(2)))
	_, err = store.GetOpset(o.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	rows, err := store.Rows("ds", 0, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, store.PutDataset(testDataset("keep"), testRows(1)))
	o, err = store.CreateOpset(dataset.Opset{DatasetID: "ds"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDataset("ds"))
	_, err = store.GetOpset(o.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.Rows("ds", 0, 10)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	assert.ErrorIs(t, store.DeleteDataset("ds"), persistence.ErrNotFound)

	list, err := store.ListDatasets()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].ID)
}

func TestSQLiteStorePersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store1, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.PutDataset(testDataset("ds"), testRows(3)))
	o, err := store1.CreateOpset(dataset.Opset{DatasetID: "ds", Plot: []string{"B"}, Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	// Reopen and verify data persisted
	store2, err := New(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	ds, err := store2.GetDataset("ds")
	require.NoError(t, err)
	require.Len(t, ds.Ops, 1)
	assert.Equal(t, o, ds.Ops[0])

	rows, err := store2.Rows("ds", ds.Ops[0].Offset, ds.Ops[0].Limit)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
