// Package server is the tsview backend: an HTTP service over a
// persistence.Store that imports files, stores query descriptors, serves
// row windows and computes forecasts.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bpowers/tsview/api"
	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/forecast"
	"github.com/bpowers/tsview/importer"
	"github.com/bpowers/tsview/internal/logging"
	"github.com/bpowers/tsview/persistence"
)

const (
	// DefaultPrefix is where the API routes are mounted.
	DefaultPrefix = "/tsapi/v1"
	// DefaultMaxUpload bounds the size of an uploaded file.
	DefaultMaxUpload = 32 << 20
	// MaxHorizon bounds the forecast horizon.
	MaxHorizon = 10000
)

type Option func(*Server)

// WithPrefix mounts the API routes under prefix instead of DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.prefix = strings.TrimRight(prefix, "/")
	}
}

// WithForecaster replaces the forecaster behind POST /forecast.
func WithForecaster(f forecast.Forecaster) Option {
	return func(s *Server) {
		if f != nil {
			s.forecaster = f
		}
	}
}

// WithRegistry registers the request metrics with reg, which /metrics then
// serves. By default each Server has a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithMaxUpload bounds the size of an uploaded file.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// Server implements the backend API.
type Server struct {
	store      persistence.Store
	prefix     string
	forecaster forecast.Forecaster
	registry   *prometheus.Registry
	maxUpload  int64
	logger     *slog.Logger
	metrics    *metrics
	mux        *http.ServeMux
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	imported prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tsview_http_requests_total",
			Help: "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tsview_http_request_duration_seconds",
			Help:    "Duration of API requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
		imported: factory.NewCounter(prometheus.CounterOpts{
			Name: "tsview_datasets_imported_total",
			Help: "Total number of datasets imported",
		}),
	}
}

// New returns a Server over store.
func New(store persistence.Store, opts ...Option) *Server {
	s := &Server{
		store:      store,
		prefix:     DefaultPrefix,
		forecaster: forecast.Linear{},
		maxUpload:  DefaultMaxUpload,
		logger:     logging.For("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /datasets", "list_datasets", s.handleListDatasets)
	s.handle("POST /files", "upload", s.handleUpload)
	s.handle("DELETE /datasets/{id}", "delete_dataset", s.handleDeleteDataset)
	s.handle("POST /opsets", "create_opset", s.handleCreateOpset)
	s.handle("PUT /opsets/{id}", "update_opset", s.handleUpdateOpset)
	s.handle("GET /tsop/{id}", "window", s.handleWindow)
	s.handle("POST /forecast", "forecast", s.handleForecast)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// handle mounts h under the prefix, instrumented with the route's metrics.
func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	method, path, _ := strings.Cut(pattern, " ")
	labels := prometheus.Labels{"route": route}
	instrumented := promhttp.InstrumentHandlerDuration(
		s.metrics.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(s.metrics.requests.MustCurryWith(labels), h),
	)
	s.mux.Handle(method+" "+s.prefix+path, instrumented)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Import stores an imported dataset.
func (s *Server) Import(res importer.Result) error {
	if err := s.store.PutDataset(res.Dataset, res.Rows); err != nil {
		return fmt.Errorf("store dataset %s: %w", res.Dataset.ID, err)
	}
	s.metrics.imported.Inc()
	s.logger.Info("dataset imported", "dataset", res.Dataset.ID, "name", res.Dataset.Name, "rows", len(res.Rows))
	return nil
}

// httpError is an error with the status code it should be answered with.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

func statusOf(err error) int {
	var he *httpError
	switch {
	case errors.As(err, &he):
		return he.status
	case errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrUnsupportedFormat), errors.Is(err, importer.ErrNoHeader), errors.Is(err, forecast.ErrNoData):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("decode body: %v", err)
	}
	return nil
}

// validateOpset checks a descriptor against its dataset.
func validateOpset(ds dataset.Dataset, o dataset.Opset) error {
	if o.Offset < 0 || o.Limit < 0 {
		return badRequest("offset and limit must not be negative")
	}
	for _, id := range o.Plot {
		if !slices.Contains(ds.SeriesCols, id) {
			return badRequest("%q is not a series column of dataset %s", id, ds.ID)
		}
	}
	return nil
}
