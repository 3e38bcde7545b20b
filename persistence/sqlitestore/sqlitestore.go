// Package sqlitestore provides SQLite-based persistence for datasets, their
// rows and their query descriptors.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/persistence"
)

// SQLiteStore implements persistence.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ persistence.Store = (*SQLiteStore)(nil)

// New creates a new SQLite-based store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables if they don't exist.
func (s *SQLiteStore) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS datasets (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    series_cols    TEXT NOT NULL DEFAULT '[]',
    timestamp_cols TEXT NOT NULL DEFAULT '[]',
    other_cols     TEXT NOT NULL DEFAULT '[]',
    max_length     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS opsets (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id TEXT NOT NULL,
    plot       TEXT NOT NULL DEFAULT '[]',
    row_offset INTEGER NOT NULL DEFAULT 0,
    row_limit  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_opsets_dataset ON opsets(dataset_id);

CREATE TABLE IF NOT EXISTS data_rows (
    dataset_id TEXT NOT NULL,
    row_index  INTEGER NOT NULL,
    timestamp  TEXT NOT NULL,
    data       TEXT NOT NULL,
    PRIMARY KEY (dataset_id, row_index)
);
`
	_, err := s.db.Exec(schema)
	return err
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeList(ids []string) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	return encodeJSON(ids)
}

func decodeList(src string) ([]string, error) {
	out := []string{}
	if src == "" || src == "[]" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(src), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(row scanner) (dataset.Dataset, error) {
	var ds dataset.Dataset
	var series, timestamps, others string
	if err := row.Scan(&ds.ID, &ds.Name, &ds.Description, &series, &timestamps, &others, &ds.MaxLength); err != nil {
		return dataset.Dataset{}, err
	}
	var err error
	if ds.SeriesCols, err = decodeList(series); err != nil {
		return dataset.Dataset{}, fmt.Errorf("decode series columns: %w", err)
	}
	if ds.TimestampCols, err = decodeList(timestamps); err != nil {
		return dataset.Dataset{}, fmt.Errorf("decode timestamp columns: %w", err)
	}
	if ds.OtherCols, err = decodeList(others); err != nil {
		return dataset.Dataset{}, fmt.Errorf("decode other columns: %w", err)
	}
	return ds, nil
}

func scanOpset(row scanner) (dataset.Opset, error) {
	var o dataset.Opset
	var id int64
	var plot string
	if err := row.Scan(&id, &o.DatasetID, &plot, &o.Offset, &o.Limit); err != nil {
		return dataset.Opset{}, err
	}
	o.ID = strconv.FormatInt(id, 10)
	var err error
	if o.Plot, err = decodeList(plot); err != nil {
		return dataset.Opset{}, fmt.Errorf("decode plot: %w", err)
	}
	return o, nil
}

const (
	datasetColumns = `id, name, description, series_cols, timestamp_cols, other_cols, max_length`
	opsetColumns   = `id, dataset_id, plot, row_offset, row_limit`
)

// ListDatasets implements persistence.Store.
func (s *SQLiteStore) ListDatasets() ([]dataset.Dataset, error) {
	rows, err := s.db.Query(`SELECT ` + datasetColumns + ` FROM datasets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	var datasets []dataset.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	rows.Close()

	// The pool holds one connection, so descriptors are loaded only after
	// the dataset rows are closed.
	for i := range datasets {
		if datasets[i].Ops, err = s.opsets(datasets[i].ID); err != nil {
			return nil, err
		}
	}
	if datasets == nil {
		datasets = []dataset.Dataset{}
	}
	return datasets, nil
}

// GetDataset implements persistence.Store.
func (s *SQLiteStore) GetDataset(id string) (dataset.Dataset, error) {
	ds, err := scanDataset(s.db.QueryRow(`SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dataset.Dataset{}, persistence.NotFound("dataset", id)
		}
		return dataset.Dataset{}, fmt.Errorf("query dataset: %w", err)
	}
	if ds.Ops, err = s.opsets(id); err != nil {
		return dataset.Dataset{}, err
	}
	return ds, nil
}

func (s *SQLiteStore) opsets(datasetID string) ([]dataset.Opset, error) {
	rows, err := s.db.Query(`SELECT `+opsetColumns+` FROM opsets WHERE dataset_id = ? ORDER BY id`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query opsets: %w", err)
	}
	defer rows.Close()

	ops := []dataset.Opset{}
	for rows.Next() {
		o, err := scanOpset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opset: %w", err)
		}
		ops = append(ops, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opsets: %w", err)
	}
	return ops, nil
}

// PutDataset implements persistence.Store.
func (s *SQLiteStore) PutDataset(ds dataset.Dataset, rows []persistence.Row) error {
	if ds.ID == "" {
		return errors.New("put dataset: empty id")
	}
	series, err := encodeList(ds.SeriesCols)
	if err != nil {
		return fmt.Errorf("encode series columns: %w", err)
	}
	timestamps, err := encodeList(ds.TimestampCols)
	if err != nil {
		return fmt.Errorf("encode timestamp columns: %w", err)
	}
	others, err := encodeList(ds.OtherCols)
	if err != nil {
		return fmt.Errorf("encode other columns: %w", err)
	}

	return s.ExecInTransaction(func(tx *sql.Tx) error {
		if err := deleteDataset(tx, ds.ID); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO datasets (`+datasetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ds.ID, ds.Name, ds.Description, series, timestamps, others, ds.MaxLength,
		)
		if err != nil {
			return fmt.Errorf("insert dataset: %w", err)
		}

		stmt, err := tx.Prepare(`INSERT INTO data_rows (dataset_id, row_index, timestamp, data) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare row insert: %w", err)
		}
		defer stmt.Close()
		for i, r := range rows {
			data, err := encodeJSON(r.Values)
			if err != nil {
				return fmt.Errorf("encode row %d: %w", i, err)
			}
			if _, err := stmt.Exec(ds.ID, i, r.Timestamp, data); err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}
		return nil
	})
}

// DeleteDataset implements persistence.Store.
func (s *SQLiteStore) DeleteDataset(id string) error {
	return s.ExecInTransaction(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow(`SELECT COUNT(*) FROM datasets WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("query dataset: %w", err)
		}
		if exists == 0 {
			return persistence.NotFound("dataset", id)
		}
		return deleteDataset(tx, id)
	})
}

func deleteDataset(tx *sql.Tx, id string) error {
	if _, err := tx.Exec(`DELETE FROM data_rows WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM opsets WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("delete opsets: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM datasets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}

// CreateOpset implements persistence.Store.
func (s *SQLiteStore) CreateOpset(o dataset.Opset) (dataset.Opset, error) {
	plot, err := encodeList(o.Plot)
	if err != nil {
		return dataset.Opset{}, fmt.Errorf("encode plot: %w", err)
	}

	var out dataset.Opset
	err = s.ExecInTransaction(func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM datasets WHERE id = ?`, o.DatasetID).Scan(&exists); err != nil {
			return fmt.Errorf("query dataset: %w", err)
		}
		if exists == 0 {
			return persistence.NotFound("dataset", o.DatasetID)
		}
		result, err := tx.Exec(
			`INSERT INTO opsets (dataset_id, plot, row_offset, row_limit) VALUES (?, ?, ?, ?)`,
			o.DatasetID, plot, o.Offset, o.Limit,
		)
		if err != nil {
			return fmt.Errorf("insert opset: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("get insert id: %w", err)
		}
		out = o.Clone()
		out.ID = strconv.FormatInt(id, 10)
		if out.Plot == nil {
			out.Plot = []string{}
		}
		return nil
	})
	if err != nil {
		return dataset.Opset{}, err
	}
	return out, nil
}

// UpdateOpset implements persistence.Store.
func (s *SQLiteStore) UpdateOpset(o dataset.Opset) (dataset.Opset, error) {
	prev, err := s.GetOpset(o.ID)
	if err != nil {
		return dataset.Opset{}, err
	}
	if o.DatasetID != prev.DatasetID {
		return dataset.Opset{}, fmt.Errorf("update opset %s: dataset %q does not match %q", o.ID, o.DatasetID, prev.DatasetID)
	}
	plot, err := encodeList(o.Plot)
	if err != nil {
		return dataset.Opset{}, fmt.Errorf("encode plot: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE opsets SET plot = ?, row_offset = ?, row_limit = ? WHERE id = ?`,
		plot, o.Offset, o.Limit, prev.ID,
	)
	if err != nil {
		return dataset.Opset{}, fmt.Errorf("update opset: %w", err)
	}
	return s.GetOpset(prev.ID)
}

// GetOpset implements persistence.Store.
func (s *SQLiteStore) GetOpset(id string) (dataset.Opset, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return dataset.Opset{}, persistence.NotFound("opset", id)
	}
	o, err := scanOpset(s.db.QueryRow(`SELECT `+opsetColumns+` FROM opsets WHERE id = ?`, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dataset.Opset{}, persistence.NotFound("opset", id)
		}
		return dataset.Opset{}, fmt.Errorf("query opset: %w", err)
	}
	return o, nil
}

// Rows implements persistence.Store.
func (s *SQLiteStore) Rows(datasetID string, offset, limit int) ([]persistence.Row, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM datasets WHERE id = ?`, datasetID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	if exists == 0 {
		return nil, persistence.NotFound("dataset", datasetID)
	}
	lo := max(offset, 0)
	hi := lo + max(limit, 0)

	rows, err := s.db.Query(
		`SELECT row_index, timestamp, data FROM data_rows WHERE dataset_id = ? AND row_index >= ? AND row_index < ? ORDER BY row_index`,
		datasetID, lo, hi,
	)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := []persistence.Row{}
	for rows.Next() {
		var r persistence.Row
		var data string
		if err := rows.Scan(&r.Index, &r.Timestamp, &data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &r.Values); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", r.Index, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close implements persistence.Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ExecInTransaction executes a function within a transaction.
func (s *SQLiteStore) ExecInTransaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
