package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/psanford/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bpowers/tsview/dataset"
)

const powerCSV = `T,A,B,note
2024-01-01 00:00:00,1.5,10,ok
2024-01-01 01:00:00,2.5,,late
2024-01-01 02:00:00,3.5,30,ok
`

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", CSV, false},
		{"DATA.CSV", CSV, false},
		{"book.xlsx", XLSX, false},
		{"data.parquet", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatOf(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportCSV(t *testing.T) {
	res, err := Import("Power Meter", "power.csv", strings.NewReader(powerCSV))
	require.NoError(t, err)

	ds := res.Dataset
	assert.True(t, strings.HasPrefix(ds.ID, "power_meter_"), ds.ID)
	assert.Equal(t, "Power Meter", ds.Name)
	assert.Equal(t, []string{"A", "B"}, ds.SeriesCols)
	assert.Equal(t, []string{"T"}, ds.TimestampCols)
	assert.Equal(t, []string{"note"}, ds.OtherCols)
	assert.Equal(t, 3, ds.MaxLength)
	assert.Empty(t, ds.Ops)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, "2024-01-01 01:00:00", res.Rows[1].Timestamp)
	assert.Equal(t, map[string]float64{"A": 2.5}, res.Rows[1].Values)
	assert.Equal(t, 2, res.Rows[2].Index)
}

func TestImportWithoutTimeColumnUsesRowIndex(t *testing.T) {
	res, err := Import("x", "x.csv", strings.NewReader("A,label\n1,a\n2,b\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Dataset.TimestampCols)
	assert.Equal(t, "0", res.Rows[0].Timestamp)
	assert.Equal(t, "1", res.Rows[1].Timestamp)
}

func TestImportErrors(t *testing.T) {
	_, err := Import("x", "x.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Import("x", "x.parquet", strings.NewReader("PAR1"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Import("x", "x.csv", strings.NewReader("A,B\n\"unterminated,1\n"))
	assert.Error(t, err)
}

func TestColumnIDs(t *testing.T) {
	assert.Equal(t, []string{"A", "col_2", "A_2", "A_3"}, columnIDs([]string{" A ", "", "A", "A"}))
}

func TestClassify(t *testing.T) {
	tbl := Table{
		Header: []string{"num", "when", "mixed", "empty"},
		Records: [][]string{
			{"1", "2024-01-01", "x"},
			{"", "2024-01-02", "2"},
			{"-3.5e2", "", ""},
		},
	}
	assert.Equal(t, []dataset.Category{dataset.Series, dataset.Time, dataset.Other, dataset.Other}, tbl.Classify())
}

func TestImportXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	require.NoError(t, f.SetSheetRow(sheetName, "A1", &[]any{"T", "A", "note"}))
	require.NoError(t, f.SetSheetRow(sheetName, "A2", &[]any{"2024-01-01", 1.25, "a"}))
	require.NoError(t, f.SetSheetRow(sheetName, "A3", &[]any{"2024-01-02", 2, "b"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := Import("book", "book.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.Dataset.SeriesCols)
	assert.Equal(t, []string{"T"}, res.Dataset.TimestampCols)
	assert.Equal(t, []string{"note"}, res.Dataset.OtherCols)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 1.25, res.Rows[0].Values["A"])
	assert.Equal(t, "2024-01-02", res.Rows[1].Timestamp)
}

func TestImportFS(t *testing.T) {
	testFS := memfs.New()
	require.NoError(t, testFS.MkdirAll("seed/nested", 0o755))
	require.NoError(t, testFS.WriteFile("seed/power.csv", []byte(powerCSV), 0o644))
	require.NoError(t, testFS.WriteFile("seed/nested/small.csv", []byte("A\n1\n"), 0o644))
	require.NoError(t, testFS.WriteFile("seed/readme.txt", []byte("ignored"), 0o644))
	require.NoError(t, testFS.WriteFile("seed/broken.csv", []byte(""), 0o644))

	results, err := ImportFS(testFS, "seed")
	require.NoError(t, err)
	require.Len(t, results, 2)

	names := []string{results[0].Dataset.Name, results[1].Dataset.Name}
	assert.ElementsMatch(t, []string{"power", "small"}, names)

	_, err = ImportFS(testFS, "missing")
	assert.Error(t, err)
}

func TestNewID(t *testing.T) {
	a, b := NewID("My Data"), NewID("My Data")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "my_data_"))
	assert.True(t, strings.HasPrefix(NewID("  "), "ds_"))
}
