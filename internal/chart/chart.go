// Package chart renders a viewer's display window to PNG.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/palette"
)

// ErrTooFewPoints is returned when no series has two points to draw.
var ErrTooFewPoints = errors.New("need at least two points to draw a line")

// Line is one series to draw.
type Line struct {
	ID     string
	Color  palette.Color
	Dashed bool
}

// Options controls the rendered image.
type Options struct {
	Title  string
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1024
	}
	if h <= 0 {
		h = 400
	}
	return w, h
}

func lineStyle(c palette.Color, dashed bool) gochart.Style {
	col := drawing.ColorFromHex(strings.TrimPrefix(c.Hex, "#"))
	st := gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
	if dashed {
		st.StrokeDashArray = []float64{5, 3}
	}
	return st
}

// Render draws lines over points as PNG. The x axis is time when every
// timestamp parses, otherwise the row position.
func Render(w io.Writer, points []dataset.Point, lines []Line, opts Options) error {
	times, timeAxis := parseTimes(points)

	var series []gochart.Series
	for _, l := range lines {
		var xs []float64
		var ts []time.Time
		var ys []float64
		for i, p := range points {
			v, ok := p.Data[l.ID]
			if !ok {
				continue
			}
			if timeAxis {
				ts = append(ts, times[i])
			} else {
				xs = append(xs, float64(i))
			}
			ys = append(ys, v)
		}
		if len(ys) < 2 {
			continue
		}
		st := lineStyle(l.Color, l.Dashed)
		if timeAxis {
			series = append(series, gochart.TimeSeries{Name: l.ID, XValues: ts, YValues: ys, Style: st})
		} else {
			series = append(series, gochart.ContinuousSeries{Name: l.ID, XValues: xs, YValues: ys, Style: st})
		}
	}
	if len(series) == 0 {
		return ErrTooFewPoints
	}

	width, height := opts.size()
	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		Series:     series,
	}
	if timeAxis {
		ch.XAxis = gochart.XAxis{ValueFormatter: gochart.TimeValueFormatterWithFormat("2006-01-02 15:04")}
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func parseTimes(points []dataset.Point) ([]time.Time, bool) {
	if len(points) == 0 {
		return nil, false
	}
	times := make([]time.Time, len(points))
	for i, p := range points {
		t, _, ok := dataset.ParseTime(p.Timestamp)
		if !ok {
			return nil, false
		}
		times[i] = t
	}
	return times, true
}
