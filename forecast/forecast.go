// Package forecast implements the projections served by the backend's
// forecast endpoint.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/persistence"
)

// ErrNoData is returned when the history holds no value for the series.
var ErrNoData = errors.New("no data to forecast from")

// DefaultZ is the band half-width in residual standard deviations (95%).
const DefaultZ = 1.96

// Forecaster projects one series of a row history horizon rows forward.
type Forecaster interface {
	Forecast(history []persistence.Row, series string, horizon int) (dataset.Forecast, error)
}

// Linear fits a least-squares line through the series values and projects
// it, with a band of Z residual standard deviations.
type Linear struct {
	Z float64
}

var _ Forecaster = Linear{}

// Forecast implements Forecaster.
func (l Linear) Forecast(history []persistence.Row, series string, horizon int) (dataset.Forecast, error) {
	if horizon <= 0 {
		return dataset.Forecast{}, fmt.Errorf("forecast: horizon must be positive, got %d", horizon)
	}
	var xs, ys []float64
	for i, r := range history {
		if v, ok := r.Values[series]; ok {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	if len(ys) == 0 {
		return dataset.Forecast{}, fmt.Errorf("forecast %q: %w", series, ErrNoData)
	}

	z := l.Z
	if z <= 0 {
		z = DefaultZ
	}
	intercept, slope := fit(xs, ys)
	band := z * residualStdDev(xs, ys, intercept, slope)
	stamps := nextTimestamps(history, horizon)

	center := make([]dataset.Point, horizon)
	upper := make([]dataset.Point, horizon)
	lower := make([]dataset.Point, horizon)
	for i := range horizon {
		x := float64(len(history) + i)
		y := intercept + slope*x
		center[i] = point(stamps[i], series, y)
		upper[i] = point(stamps[i], series, y+band)
		lower[i] = point(stamps[i], series, y-band)
	}
	return dataset.NewForecast(series, [][]dataset.Point{center, upper, lower})
}

func point(ts, series string, v float64) dataset.Point {
	return dataset.Point{Timestamp: ts, Data: map[string]float64{series: v}}
}

// fit returns the least-squares intercept and slope of ys over xs.
func fit(xs, ys []float64) (intercept, slope float64) {
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return sy / n, 0
	}
	slope = (n*sxy - sx*sy) / denom
	intercept = (sy - slope*sx) / n
	return intercept, slope
}

func residualStdDev(xs, ys []float64, intercept, slope float64) float64 {
	if len(xs) < 3 {
		return 0
	}
	var sse float64
	for i := range xs {
		r := ys[i] - (intercept + slope*xs[i])
		sse += r * r
	}
	return math.Sqrt(sse / float64(len(xs)-2))
}

// nextTimestamps continues the history's timestamps: by its last time step
// when the last two parse as times, otherwise by row index.
func nextTimestamps(history []persistence.Row, horizon int) []string {
	out := make([]string, horizon)
	n := len(history)
	if n >= 2 {
		prev, _, okPrev := dataset.ParseTime(history[n-2].Timestamp)
		last, layout, okLast := dataset.ParseTime(history[n-1].Timestamp)
		if okPrev && okLast && last.After(prev) {
			step := last.Sub(prev)
			for i := range out {
				out[i] = last.Add(step * time.Duration(i+1)).Format(layout)
			}
			return out
		}
	}
	next := 0
	if n > 0 {
		next = history[n-1].Index + 1
	}
	for i := range out {
		out[i] = strconv.Itoa(next + i)
	}
	return out
}
