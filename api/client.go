// Package api is the client side of the tsview backend: the dataset catalog,
// file uploads, query descriptors (opsets), window fetches and forecasts.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/internal/logging"
)

// DefaultBaseURL is where a locally started tsviewd serves its API.
const DefaultBaseURL = "http://localhost:8000/tsapi/v1"

// logger is the package-level structured logger.
// Log levels used in this package:
//   - Debug: every request and its status
//   - Warn: failed requests
var logger = logging.For("api")

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	headers map[string]string
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the http.Client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// NewClient returns a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the root every request path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListDatasets fetches the dataset catalog.
func (c *Client) ListDatasets(ctx context.Context) ([]dataset.Dataset, error) {
	const op = "list datasets"
	var out []dataset.Dataset
	if err := c.doJSON(ctx, op, http.MethodGet, "/datasets", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []dataset.Dataset{}
	}
	return out, nil
}

// Upload is a file handed to POST /files.
type Upload struct {
	Name       string // dataset name
	UploadType string // UploadImport or UploadAdd
	Filename   string
	Body       io.Reader
}

// UploadDataset sends a file for import and returns the created dataset.
func (c *Client) UploadDataset(ctx context.Context, up Upload) (dataset.Dataset, error) {
	const op = "upload dataset"
	if up.Name == "" {
		return dataset.Dataset{}, Validation(op, "dataset name is required")
	}
	if up.Body == nil {
		return dataset.Dataset{}, Validation(op, "file body is required")
	}
	if up.UploadType == "" {
		up.UploadType = UploadImport
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(FormName, up.Name); err != nil {
		return dataset.Dataset{}, fmt.Errorf("write form: %w", err)
	}
	if err := mw.WriteField(FormUploadType, up.UploadType); err != nil {
		return dataset.Dataset{}, fmt.Errorf("write form: %w", err)
	}
	fw, err := mw.CreateFormFile(FormFile, up.Filename)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("write form: %w", err)
	}
	if _, err := io.Copy(fw, up.Body); err != nil {
		return dataset.Dataset{}, fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return dataset.Dataset{}, fmt.Errorf("close form: %w", err)
	}

	var out dataset.Dataset
	if err := c.do(ctx, op, http.MethodPost, "/files", &buf, mw.FormDataContentType(), &out); err != nil {
		return dataset.Dataset{}, err
	}
	if out.ID == "" {
		return dataset.Dataset{}, newError(op, 0, ErrMalformedResponse, errors.New("dataset has no id"))
	}
	return out, nil
}

// DeleteDataset removes a dataset and, on the backend, its descriptors.
func (c *Client) DeleteDataset(ctx context.Context, id string) error {
	const op = "delete dataset"
	if id == "" {
		return Validation(op, "dataset id is required")
	}
	return c.doJSON(ctx, op, http.MethodDelete, "/datasets/"+url.PathEscape(id), nil, nil)
}

// CreateOpset persists a new descriptor. The id sent is always the unset
// sentinel; the returned descriptor carries the backend-assigned id.
func (c *Client) CreateOpset(ctx context.Context, o dataset.Opset) (dataset.Opset, error) {
	const op = "create opset"
	if o.DatasetID == "" {
		return dataset.Opset{}, Validation(op, "dataset id is required")
	}
	o.ID = dataset.UnsetID
	return c.writeOpset(ctx, op, http.MethodPost, "/opsets", o)
}

// UpdateOpset replaces the descriptor addressed by o.ID.
func (c *Client) UpdateOpset(ctx context.Context, o dataset.Opset) (dataset.Opset, error) {
	const op = "update opset"
	if !o.Confirmed() {
		return dataset.Opset{}, Validation(op, "opset %q has no backend id", o.ID)
	}
	return c.writeOpset(ctx, op, http.MethodPut, "/opsets/"+url.PathEscape(o.ID), o)
}

func (c *Client) writeOpset(ctx context.Context, op, method, path string, o dataset.Opset) (dataset.Opset, error) {
	if o.Plot == nil {
		o.Plot = []string{}
	}
	var out dataset.Opset
	if err := c.doJSON(ctx, op, method, path, o, &out); err != nil {
		return dataset.Opset{}, err
	}
	if !out.Confirmed() {
		return dataset.Opset{}, newError(op, 0, ErrMalformedResponse, fmt.Errorf("opset id %q", out.ID))
	}
	return out, nil
}

// FetchWindow retrieves the rows named by a confirmed descriptor.
func (c *Client) FetchWindow(ctx context.Context, opsetID string) ([]dataset.Point, error) {
	const op = "fetch window"
	if opsetID == "" || opsetID == dataset.UnsetID {
		return nil, Validation(op, "opset %q has no backend id", opsetID)
	}
	var out struct {
		Data *[]dataset.Point `json:"data"`
	}
	if err := c.doJSON(ctx, op, http.MethodGet, "/tsop/"+url.PathEscape(opsetID), nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, newError(op, 0, ErrMalformedResponse, errors.New(`missing "data"`))
	}
	return *out.Data, nil
}

// Forecast requests a projection for one series of a descriptor.
func (c *Client) Forecast(ctx context.Context, req dataset.ForecastRequest) (dataset.Forecast, error) {
	const op = "forecast"
	switch {
	case req.OpsetID == "" || req.OpsetID == dataset.UnsetID:
		return dataset.Forecast{}, Validation(op, "opset id is required")
	case req.SeriesID == "":
		return dataset.Forecast{}, Validation(op, "series id is required")
	case req.Horizon <= 0:
		return dataset.Forecast{}, Validation(op, "horizon must be positive, got %d", req.Horizon)
	}

	var out ForecastResponse
	if err := c.doJSON(ctx, op, http.MethodPost, "/forecast", req, &out); err != nil {
		return dataset.Forecast{}, err
	}
	f, err := dataset.NewForecast(req.SeriesID, out.Forecast)
	if err != nil {
		return dataset.Forecast{}, newError(op, 0, ErrMalformedResponse, err)
	}
	return f, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "method", method, "path", path, "error", err)
		return newError(op, 0, ErrNetwork, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request done", "op", op, "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(op, resp.StatusCode, ErrNetwork, errors.New(readErrorMessage(resp.Body)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(op, resp.StatusCode, ErrMalformedResponse, err)
	}
	return nil
}

// readErrorMessage extracts the backend's error text, falling back to the
// raw body.
func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var er ErrorResponse
	if json.Unmarshal(data, &er) == nil && er.Error != "" {
		return er.Error
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "empty response"
}
