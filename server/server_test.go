package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tsview/api"
	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/persistence"
)

const powerCSV = `T,A,B,note
2024-01-01,1,10,a
2024-01-02,2,20,b
2024-01-03,3,30,c
2024-01-04,4,40,d
`

func newTestServer(t *testing.T, opts ...Option) (*Server, *api.Client) {
	t.Helper()
	srv := New(persistence.NewMemoryStore(), opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	client, err := api.NewClient(ts.URL + DefaultPrefix)
	require.NoError(t, err)
	return srv, client
}

func upload(t *testing.T, client *api.Client) dataset.Dataset {
	t.Helper()
	ds, err := client.UploadDataset(context.Background(), api.Upload{
		Name:     "power",
		Filename: "power.csv",
		Body:     strings.NewReader(powerCSV),
	})
	require.NoError(t, err)
	return ds
}

func TestUploadAndList(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	ds := upload(t, client)
	assert.Equal(t, []string{"A", "B"}, ds.SeriesCols)
	assert.Equal(t, []string{"T"}, ds.TimestampCols)
	assert.Equal(t, []string{"note"}, ds.OtherCols)
	assert.Equal(t, 4, ds.MaxLength)

	list, err := client.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ds.ID, list[0].ID)
	assert.Empty(t, list[0].Ops)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	_, client := newTestServer(t)

	_, err := client.UploadDataset(context.Background(), api.Upload{
		Name:       "p",
		UploadType: api.UploadAdd,
		Filename:   "p.parquet",
		Body:       strings.NewReader("PAR1"),
	})
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestUploadRejectsUnknownType(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField(api.FormName, "x"))
	require.NoError(t, mw.WriteField(api.FormUploadType, "replace"))
	fw, err := mw.CreateFormFile(api.FormFile, "x.csv")
	require.NoError(t, err)
	_, _ = io.WriteString(fw, "A\n1\n")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, DefaultPrefix+"/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body.Error, "replace")
}

func TestOpsetLifecycle(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()
	ds := upload(t, client)

	created, err := client.CreateOpset(ctx, dataset.Opset{DatasetID: ds.ID, Plot: []string{"A"}, Offset: 0, Limit: 4})
	require.NoError(t, err)
	assert.True(t, created.Confirmed())

	points, err := client.FetchWindow(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, "2024-01-02", points[1].Timestamp)
	assert.Equal(t, map[string]float64{"A": 2}, points[1].Data)

	created.Plot = []string{"A", "B"}
	created.Offset = 1
	created.Limit = 2
	updated, err := client.UpdateOpset(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created, updated)

	points, err = client.FetchWindow(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, map[string]float64{"A": 2, "B": 20}, points[0].Data)

	list, err := client.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, list[0].Ops, 1)
	assert.Equal(t, created.ID, list[0].Ops[0].ID)
}

func TestOpsetValidation(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()
	ds := upload(t, client)

	_, err := client.CreateOpset(ctx, dataset.Opset{DatasetID: ds.ID, Plot: []string{"T"}})
	assert.ErrorIs(t, err, api.ErrNetwork)
	assert.Contains(t, err.Error(), "not a series column")

	_, err = client.CreateOpset(ctx, dataset.Opset{DatasetID: "missing"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	created, err := client.CreateOpset(ctx, dataset.Opset{DatasetID: ds.ID})
	require.NoError(t, err)
	created.DatasetID = "other"
	_, err = client.UpdateOpset(ctx, created)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	_, err = client.FetchWindow(ctx, "999")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestForecastEndpoint(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()
	ds := upload(t, client)

	o, err := client.CreateOpset(ctx, dataset.Opset{DatasetID: ds.ID, Plot: []string{"A"}, Limit: 4})
	require.NoError(t, err)

	f, err := client.Forecast(ctx, dataset.ForecastRequest{OpsetID: o.ID, SeriesID: "A", Horizon: 2})
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.InDelta(t, 5.0, f.Center[0].Data["A"], 1e-9)
	assert.Equal(t, "2024-01-05", f.Center[0].Timestamp)

	_, err = client.Forecast(ctx, dataset.ForecastRequest{OpsetID: o.ID, SeriesID: "B", Horizon: 2})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestDeleteCascades(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()
	ds := upload(t, client)
	o, err := client.CreateOpset(ctx, dataset.Opset{DatasetID: ds.ID, Plot: []string{"A"}, Limit: 4})
	require.NoError(t, err)

	require.NoError(t, client.DeleteDataset(ctx, ds.ID))

	_, err = client.FetchWindow(ctx, o.ID)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	err = client.DeleteDataset(ctx, ds.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, client := newTestServer(t)
	_, err := client.ListDatasets(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tsview_http_requests_total{code="200",route="list_datasets"} 1`)
}

func TestCustomPrefix(t *testing.T) {
	srv := New(persistence.NewMemoryStore(), WithPrefix("/api/"))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultPrefix+"/datasets", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
