// Package importer turns uploaded tabular files into datasets: it reads CSV
// and XLSX files, classifies their columns and extracts the rows the backend
// stores.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/xuri/excelize/v2"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/internal/logging"
	"github.com/bpowers/tsview/persistence"
)

var logger = logging.For("importer")

var (
	// ErrUnsupportedFormat is returned for files other than CSV and XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader is returned for a file without a header row.
	ErrNoHeader = errors.New("missing header row")
)

// Format is a supported input file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// FormatOf picks the format from a file name's extension.
func FormatOf(filename string) (Format, error) {
	switch ext := strings.ToLower(path.Ext(filename)); ext {
	case ".csv":
		return CSV, nil
	case ".xlsx":
		return XLSX, nil
	default:
		return "", fmt.Errorf("%q: %w", filename, ErrUnsupportedFormat)
	}
}

// Table is a parsed file: a header naming the columns and the data records.
// Records may be shorter than the header; missing cells are empty.
type Table struct {
	Header  []string
	Records [][]string
}

// Result is an imported dataset and its rows.
type Result struct {
	Dataset dataset.Dataset
	Rows    []persistence.Row
}

// Read parses r according to filename's extension.
func Read(filename string, r io.Reader) (Table, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return Table{}, err
	}
	switch format {
	case XLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

// ReadCSV parses a comma-separated file whose first record is the header.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return newTable(records)
}

// ReadXLSX parses the first sheet of a workbook whose first row is the
// header.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return newTable(rows)
}

func newTable(records [][]string) (Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return Table{}, ErrNoHeader
	}
	return Table{Header: columnIDs(records[0]), Records: records[1:]}, nil
}

// columnIDs trims the header cells, names empty ones after their position
// and suffixes duplicates so every column id is unique.
func columnIDs(header []string) []string {
	seen := make(map[string]int, len(header))
	ids := make([]string, len(header))
	for i, h := range header {
		id := strings.TrimSpace(h)
		if id == "" {
			id = "col_" + strconv.Itoa(i+1)
		}
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = id + "_" + strconv.Itoa(n+1)
		}
		seen[id]++
		ids[i] = id
	}
	return ids
}

func (t Table) cell(row, col int) string {
	rec := t.Records[row]
	if col >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[col])
}

// Classify assigns each column a category: Series when every non-empty cell
// is a number, Time when every non-empty cell is a timestamp, Other
// otherwise. Columns with no values at all are Other.
func (t Table) Classify() []dataset.Category {
	cats := make([]dataset.Category, len(t.Header))
	for col := range t.Header {
		numeric, timestamps, values := true, true, 0
		for row := range t.Records {
			v := t.cell(row, col)
			if v == "" {
				continue
			}
			values++
			if numeric {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					numeric = false
				}
			}
			if timestamps {
				if _, _, ok := dataset.ParseTime(v); !ok {
					timestamps = false
				}
			}
		}
		switch {
		case values == 0:
			cats[col] = dataset.Other
		case numeric:
			cats[col] = dataset.Series
		case timestamps:
			cats[col] = dataset.Time
		default:
			cats[col] = dataset.Other
		}
	}
	return cats
}

// Build classifies t and extracts its rows into a new dataset called name.
// The row timestamp is the first Time column's value, or the row index when
// there is none.
func Build(name string, t Table) (Result, error) {
	if len(t.Header) == 0 {
		return Result{}, ErrNoHeader
	}
	ds := dataset.Dataset{
		ID:            NewID(name),
		Name:          name,
		SeriesCols:    []string{},
		TimestampCols: []string{},
		OtherCols:     []string{},
		MaxLength:     len(t.Records),
		Ops:           []dataset.Opset{},
	}
	cats := t.Classify()
	timeCol := -1
	for i, c := range cats {
		id := t.Header[i]
		switch c {
		case dataset.Series:
			ds.SeriesCols = append(ds.SeriesCols, id)
		case dataset.Time:
			ds.TimestampCols = append(ds.TimestampCols, id)
			if timeCol < 0 {
				timeCol = i
			}
		default:
			ds.OtherCols = append(ds.OtherCols, id)
		}
	}

	rows := make([]persistence.Row, len(t.Records))
	for r := range t.Records {
		row := persistence.Row{Index: r, Timestamp: strconv.Itoa(r), Values: map[string]float64{}}
		if timeCol >= 0 {
			if ts := t.cell(r, timeCol); ts != "" {
				row.Timestamp = ts
			}
		}
		for i, c := range cats {
			if c != dataset.Series {
				continue
			}
			if v, err := strconv.ParseFloat(t.cell(r, i), 64); err == nil {
				row.Values[t.Header[i]] = v
			}
		}
		rows[r] = row
	}

	logger.Info("built dataset", "dataset", ds.ID, "rows", len(rows),
		"series", len(ds.SeriesCols), "time", len(ds.TimestampCols), "other", len(ds.OtherCols))
	return Result{Dataset: ds, Rows: rows}, nil
}

// Import reads filename's contents from r and builds a dataset called name.
func Import(name, filename string, r io.Reader) (Result, error) {
	t, err := Read(filename, r)
	if err != nil {
		return Result{}, err
	}
	return Build(name, t)
}

// NewID derives a dataset id from its name: a snake_case slug followed by a
// short random suffix.
func NewID(name string) string {
	slug := strcase.ToSnake(strings.TrimSpace(name))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if slug == "" {
		return "ds_" + suffix
	}
	return slug + "_" + suffix
}
