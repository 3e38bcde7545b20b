// Package tsview is the view-state engine of the time-series viewer. A
// Viewer keeps the open dataset's column selection, row window and persisted
// query descriptor in step, fetches the window the descriptor names and
// overlays forecasts on it.
//
// The engine follows the bubbletea actor model: every entry point mutates
// state synchronously and returns a tea.Cmd for the network round trip it
// needs, and every completion comes back through Update. A Viewer is not
// safe for concurrent use; drive it from one goroutine (a tea.Program, or
// Drain in headless code).
package tsview

import (
	"context"
	"log/slog"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bpowers/tsview/api"
	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/internal/logging"
	"github.com/bpowers/tsview/palette"
	"github.com/bpowers/tsview/window"
)

// DefaultRequestTimeout bounds every backend round trip issued by a Viewer.
const DefaultRequestTimeout = 30 * time.Second

// Backend is the remote side of the viewer. *api.Client implements it.
type Backend interface {
	ListDatasets(ctx context.Context) ([]dataset.Dataset, error)
	UploadDataset(ctx context.Context, up api.Upload) (dataset.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
	CreateOpset(ctx context.Context, o dataset.Opset) (dataset.Opset, error)
	UpdateOpset(ctx context.Context, o dataset.Opset) (dataset.Opset, error)
	FetchWindow(ctx context.Context, opsetID string) ([]dataset.Point, error)
	Forecast(ctx context.Context, req dataset.ForecastRequest) (dataset.Forecast, error)
}

var _ Backend = (*api.Client)(nil)

type Option func(*Viewer)

// WithDebounce sets the quiet period of the offset and limit text fields.
func WithDebounce(d time.Duration) Option {
	return func(v *Viewer) {
		v.debounce = d
	}
}

// WithPalette replaces the series colors.
func WithPalette(colors ...palette.Color) Option {
	return func(v *Viewer) {
		if len(colors) > 0 {
			v.colors = palette.New(colors...)
		}
	}
}

// WithRequestTimeout bounds each backend request.
func WithRequestTimeout(d time.Duration) Option {
	return func(v *Viewer) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// Viewer is the view-state engine.
type Viewer struct {
	backend  Backend
	timeout  time.Duration
	debounce time.Duration
	logger   *slog.Logger

	datasets       []dataset.Dataset
	catalogReqID   uint64
	catalogLoading bool
	catalogErr     error

	current   string // id of the open dataset, "" when none
	selection dataset.Selection
	win       *window.Controller
	colors    *palette.Assigner

	// last is the tuple most recently persisted or seeded for the open
	// dataset; a differing tuple triggers a descriptor write.
	last  tuple
	syncs map[string]*syncState

	fetchGen uint64
	loading  bool
	points   []dataset.Point

	forecastGen     uint64
	forecastLoading bool
	forecast        *dataset.Forecast

	errs  map[string]error
	alert string
}

// New returns a Viewer talking to backend. Call Init to load the catalog.
func New(backend Backend, opts ...Option) *Viewer {
	v := &Viewer{
		backend:  backend,
		timeout:  DefaultRequestTimeout,
		debounce: window.DefaultDebounce,
		logger:   logging.For("viewer"),
		colors:   palette.New(),
		syncs:    make(map[string]*syncState),
		errs:     make(map[string]error),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.win = window.NewController(v.debounce)
	return v
}

// Init loads the dataset catalog.
func (v *Viewer) Init() tea.Cmd {
	return v.Refresh()
}

// Update applies a completion or timer message and returns any follow-up
// command. Messages the Viewer does not own are ignored.
func (v *Viewer) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case catalogMsg:
		return v.applyCatalog(msg)
	case uploadMsg:
		return v.applyUpload(msg)
	case deleteMsg:
		return v.applyDelete(msg)
	case opsetWrittenMsg:
		return v.applyWrite(msg)
	case windowMsg:
		v.applyWindow(msg)
	case forecastMsg:
		v.applyForecast(msg)
	case window.SettledMsg:
		if v.current != "" && v.win.Settle(msg) {
			return v.syncTuple()
		}
	}
	return nil
}

// Datasets returns the catalog.
func (v *Viewer) Datasets() []dataset.Dataset {
	out := make([]dataset.Dataset, len(v.datasets))
	for i, ds := range v.datasets {
		out[i] = ds.Clone()
	}
	return out
}

// CatalogLoading reports whether a catalog request is outstanding.
func (v *Viewer) CatalogLoading() bool {
	return v.catalogLoading
}

// Current returns the open dataset.
func (v *Viewer) Current() (dataset.Dataset, bool) {
	if v.current == "" {
		return dataset.Dataset{}, false
	}
	ds, ok := v.find(v.current)
	if !ok {
		return dataset.Dataset{}, false
	}
	return ds.Clone(), true
}

// Groups returns the grouped column tree of the open dataset.
func (v *Viewer) Groups() []dataset.Group {
	ds, ok := v.Current()
	if !ok {
		return nil
	}
	return ds.Groups()
}

// Selection returns the expanded checked ids and the plottable series.
func (v *Viewer) Selection() dataset.Selection {
	return dataset.Selection{
		Checked: slices.Clone(v.selection.Checked),
		Plot:    slices.Clone(v.selection.Plot),
	}
}

// Window returns the committed window and its display bounds.
func (v *Viewer) Window() window.State {
	return v.win.State()
}

// Text returns what the offset or limit field shows.
func (v *Viewer) Text(f window.Field) string {
	return v.win.Text(f)
}

// Color returns the palette color assigned to a series id.
func (v *Viewer) Color(id string) (palette.Color, bool) {
	return v.colors.Color(id)
}

// Loading reports whether a window fetch for the open dataset is in flight.
func (v *Viewer) Loading() bool {
	return v.loading
}

// ForecastLoading reports whether a forecast request is in flight.
func (v *Viewer) ForecastLoading() bool {
	return v.forecastLoading
}

// Opset returns the confirmed descriptor of the open dataset.
func (v *Viewer) Opset() (dataset.Opset, bool) {
	ds, ok := v.Current()
	if !ok {
		return dataset.Opset{}, false
	}
	o, ok := ds.Opset()
	if !ok || !o.Confirmed() {
		return dataset.Opset{}, false
	}
	return o, true
}

// Points returns the fetched window, without any forecast.
func (v *Viewer) Points() []dataset.Point {
	return slices.Clone(v.points)
}

// Forecast returns the forecast overlaid on the open dataset.
func (v *Viewer) Forecast() (dataset.Forecast, bool) {
	if v.forecast == nil {
		return dataset.Forecast{}, false
	}
	return *v.forecast, true
}

// Display returns the points to render: the fetched window followed by the
// forecast horizon, if any.
func (v *Viewer) Display() []dataset.Point {
	out := slices.Clone(v.points)
	if v.forecast != nil {
		out = append(out, v.forecast.Points()...)
	}
	return out
}

// Err returns the last failure recorded against a dataset. A later success
// of the same kind of request clears it.
func (v *Viewer) Err(datasetID string) error {
	return v.errs[datasetID]
}

// Alert returns the message of the last failed upload, or "".
func (v *Viewer) Alert() string {
	return v.alert
}

// DismissAlert clears the upload alert.
func (v *Viewer) DismissAlert() {
	v.alert = ""
}

// Busy reports whether any request the Viewer tracks is outstanding.
func (v *Viewer) Busy() bool {
	if v.catalogLoading || v.loading || v.forecastLoading {
		return true
	}
	for _, st := range v.syncs {
		if st.inFlight > 0 {
			return true
		}
	}
	return false
}

func (v *Viewer) find(id string) (dataset.Dataset, bool) {
	i := v.index(id)
	if i < 0 {
		return dataset.Dataset{}, false
	}
	return v.datasets[i], true
}

func (v *Viewer) index(id string) int {
	return slices.IndexFunc(v.datasets, func(ds dataset.Dataset) bool {
		return ds.ID == id
	})
}

// replace swaps the catalog entry of ds.ID for ds.
func (v *Viewer) replace(ds dataset.Dataset) bool {
	i := v.index(ds.ID)
	if i < 0 {
		return false
	}
	datasets := slices.Clone(v.datasets)
	datasets[i] = ds
	v.datasets = datasets
	return true
}

func (v *Viewer) setErr(datasetID string, err error) {
	if err == nil {
		delete(v.errs, datasetID)
		return
	}
	v.errs[datasetID] = err
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
