// Package persistence provides storage interfaces for the backend: imported
// datasets, their rows and the query descriptors (opsets) saved against them.
package persistence

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/bpowers/tsview/dataset"
)

// ErrNotFound is returned for a missing dataset or descriptor.
var ErrNotFound = errors.New("not found")

// Row is one imported data row: its timestamp key and the numeric values of
// the dataset's series columns.
type Row struct {
	Index     int                `json:"index"`
	Timestamp string             `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// Store defines the interface for persisting datasets and descriptors.
type Store interface {
	// ListDatasets returns every dataset with its descriptors, ordered by id.
	ListDatasets() ([]dataset.Dataset, error)

	// GetDataset returns one dataset with its descriptors.
	GetDataset(id string) (dataset.Dataset, error)

	// PutDataset stores ds and its rows, replacing any dataset with the same
	// id together with its descriptors. Row indexes are reassigned 0..n-1.
	PutDataset(ds dataset.Dataset, rows []Row) error

	// DeleteDataset removes a dataset, its rows and its descriptors.
	DeleteDataset(id string) error

	// CreateOpset stores a new descriptor and returns it with its assigned id.
	CreateOpset(o dataset.Opset) (dataset.Opset, error)

	// UpdateOpset replaces the descriptor addressed by o.ID.
	UpdateOpset(o dataset.Opset) (dataset.Opset, error)

	// GetOpset returns one descriptor.
	GetOpset(id string) (dataset.Opset, error)

	// Rows returns rows [offset, offset+limit) of a dataset.
	Rows(datasetID string, offset, limit int) ([]Row, error)

	// Close closes the store and releases resources.
	Close() error
}

// NotFound wraps ErrNotFound with the kind and id of the missing entity.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// datasetData holds one dataset and everything saved against it
type datasetData struct {
	ds   dataset.Dataset
	rows []Row
}

// MemoryStore provides an in-memory implementation of Store.
type MemoryStore struct {
	mu       sync.Mutex
	datasets map[string]*datasetData
	opsets   map[string]dataset.Opset
	nextID   int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string]*datasetData),
		opsets:   make(map[string]dataset.Opset),
		nextID:   1,
	}
}

// ListDatasets returns copies of all datasets ordered by id.
func (m *MemoryStore) ListDatasets() ([]dataset.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]dataset.Dataset, 0, len(m.datasets))
	for _, id := range slices.Sorted(maps.Keys(m.datasets)) {
		out = append(out, m.withOpsLocked(m.datasets[id].ds))
	}
	return out, nil
}

// GetDataset returns a copy of the dataset with its descriptors.
func (m *MemoryStore) GetDataset(id string) (dataset.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.datasets[id]
	if !ok {
		return dataset.Dataset{}, NotFound("dataset", id)
	}
	return m.withOpsLocked(d.ds), nil
}

// withOpsLocked attaches the stored descriptors of ds, oldest first (mutex
// must be held)
func (m *MemoryStore) withOpsLocked(ds dataset.Dataset) dataset.Dataset {
	out := ds.Clone()
	out.Ops = []dataset.Opset{}
	for _, o := range m.opsets {
		if o.DatasetID == ds.ID {
			out.Ops = append(out.Ops, o.Clone())
		}
	}
	slices.SortFunc(out.Ops, func(a, b dataset.Opset) int {
		ai, _ := strconv.ParseInt(a.ID, 10, 64)
		bi, _ := strconv.ParseInt(b.ID, 10, 64)
		return cmp.Compare(ai, bi)
	})
	return out
}

// PutDataset stores a dataset and its rows.
func (m *MemoryStore) PutDataset(ds dataset.Dataset, rows []Row) error {
	if ds.ID == "" {
		return errors.New("put dataset: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteLocked(ds.ID)
	ds = ds.Clone()
	ds.Ops = nil
	stored := make([]Row, len(rows))
	for i, r := range rows {
		r.Index = i
		r.Values = maps.Clone(r.Values)
		stored[i] = r
	}
	m.datasets[ds.ID] = &datasetData{ds: ds, rows: stored}
	return nil
}

// DeleteDataset removes a dataset and cascades to its descriptors.
func (m *MemoryStore) DeleteDataset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.datasets[id]; !ok {
		return NotFound("dataset", id)
	}
	m.deleteLocked(id)
	return nil
}

// deleteLocked drops a dataset and its descriptors (mutex must be held)
func (m *MemoryStore) deleteLocked(id string) {
	delete(m.datasets, id)
	maps.DeleteFunc(m.opsets, func(_ string, o dataset.Opset) bool {
		return o.DatasetID == id
	})
}

// CreateOpset assigns the next id to o and stores it.
func (m *MemoryStore) CreateOpset(o dataset.Opset) (dataset.Opset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.datasets[o.DatasetID]; !ok {
		return dataset.Opset{}, NotFound("dataset", o.DatasetID)
	}
	o = o.Clone()
	o.ID = strconv.FormatInt(m.nextID, 10)
	m.nextID++
	m.opsets[o.ID] = o
	return o.Clone(), nil
}

// UpdateOpset replaces a stored descriptor, keeping its id and dataset.
func (m *MemoryStore) UpdateOpset(o dataset.Opset) (dataset.Opset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.opsets[o.ID]
	if !ok {
		return dataset.Opset{}, NotFound("opset", o.ID)
	}
	if o.DatasetID != prev.DatasetID {
		return dataset.Opset{}, fmt.Errorf("update opset %s: dataset %q does not match %q", o.ID, o.DatasetID, prev.DatasetID)
	}
	o = o.Clone()
	m.opsets[o.ID] = o
	return o.Clone(), nil
}

// GetOpset returns a copy of a stored descriptor.
func (m *MemoryStore) GetOpset(id string) (dataset.Opset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.opsets[id]
	if !ok {
		return dataset.Opset{}, NotFound("opset", id)
	}
	return o.Clone(), nil
}

// Rows returns a copy of the requested row window.
func (m *MemoryStore) Rows(datasetID string, offset, limit int) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.datasets[datasetID]
	if !ok {
		return nil, NotFound("dataset", datasetID)
	}
	lo, hi := Bounds(len(d.rows), offset, limit)
	out := make([]Row, 0, hi-lo)
	for _, r := range d.rows[lo:hi] {
		r.Values = maps.Clone(r.Values)
		out = append(out, r)
	}
	return out, nil
}

// Close is a no-op for the in-memory store as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}

// Bounds clamps the window [offset, offset+limit) to a table of n rows.
func Bounds(n, offset, limit int) (lo, hi int) {
	lo = min(max(offset, 0), n)
	hi = min(lo+max(limit, 0), n)
	return lo, hi
}
