package tsview

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bpowers/tsview/api"
	"github.com/bpowers/tsview/dataset"
)

// fetch replaces the display buffer with the window o names. A descriptor
// that plots nothing clears the buffer without a request.
func (v *Viewer) fetch(o dataset.Opset) tea.Cmd {
	v.fetchGen++
	gen := v.fetchGen
	if len(o.Plot) == 0 {
		v.loading = false
		v.points = nil
		return nil
	}
	v.loading = true
	backend, timeout := v.backend, v.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		points, err := backend.FetchWindow(ctx, o.ID)
		return windowMsg{gen: gen, datasetID: o.DatasetID, opsetID: o.ID, points: points, err: err}
	}
}

func (v *Viewer) applyWindow(msg windowMsg) {
	if msg.gen != v.fetchGen {
		v.logger.Debug("dropping stale window", "dataset", msg.datasetID, "opset", msg.opsetID, "gen", msg.gen, "latest", v.fetchGen)
		return
	}
	v.loading = false
	if msg.err != nil {
		v.logger.Warn("fetch window failed", "dataset", msg.datasetID, "opset", msg.opsetID, "error", msg.err)
		v.setErr(msg.datasetID, msg.err)
		return
	}
	v.setErr(msg.datasetID, nil)
	v.points = msg.points
}

// RequestForecast asks for a horizon-point projection of one plotted series
// of the open dataset's descriptor. An empty series picks the first plotted
// one. Requests that cannot be served fail with api.ErrValidation before
// anything is sent.
func (v *Viewer) RequestForecast(series string, horizon int) (tea.Cmd, error) {
	const op = "forecast"
	ds, ok := v.Current()
	if !ok {
		return nil, api.Validation(op, "no dataset is open")
	}
	req, err := v.forecastRequest(ds, series, horizon)
	if err != nil {
		v.logger.Warn("forecast rejected", "dataset", ds.ID, "error", err)
		v.setErr(ds.ID, err)
		return nil, err
	}

	v.forecastGen++
	gen := v.forecastGen
	v.forecastLoading = true
	backend, timeout := v.backend, v.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		f, err := backend.Forecast(ctx, req)
		return forecastMsg{gen: gen, datasetID: ds.ID, forecast: f, err: err}
	}, nil
}

func (v *Viewer) forecastRequest(ds dataset.Dataset, series string, horizon int) (dataset.ForecastRequest, error) {
	const op = "forecast"
	o, ok := ds.Opset()
	if !ok || !o.Confirmed() {
		return dataset.ForecastRequest{}, api.Validation(op, "dataset %q has no saved view", ds.ID)
	}
	if len(o.Plot) == 0 {
		return dataset.ForecastRequest{}, api.Validation(op, "no plottable series selected")
	}
	if series == "" {
		series = o.Plot[0]
	}
	if !slices.Contains(o.Plot, series) {
		return dataset.ForecastRequest{}, api.Validation(op, "series %q is not plotted", series)
	}
	if horizon <= 0 {
		return dataset.ForecastRequest{}, api.Validation(op, "horizon must be positive, got %d", horizon)
	}
	return dataset.ForecastRequest{OpsetID: o.ID, SeriesID: series, Horizon: horizon}, nil
}

func (v *Viewer) applyForecast(msg forecastMsg) {
	if msg.gen != v.forecastGen {
		v.logger.Debug("dropping stale forecast", "dataset", msg.datasetID, "gen", msg.gen, "latest", v.forecastGen)
		return
	}
	v.forecastLoading = false
	if msg.err != nil {
		v.logger.Warn("forecast failed", "dataset", msg.datasetID, "error", msg.err)
		v.setErr(msg.datasetID, msg.err)
		return
	}
	v.setErr(msg.datasetID, nil)
	f := msg.forecast
	v.forecast = &f
}
