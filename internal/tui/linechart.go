package tui

import (
	"fmt"
	"math"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/canvas/graph"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"
)

// line is one plotted series. Missing values are NaN and break the line.
type line struct {
	ys    []float64
	style lipgloss.Style
}

// lineChart draws several series over a shared row axis with braille
// patterns, one style per series.
type lineChart struct {
	linechart.Model

	lines      []line
	n          int
	yMin, yMax float64
	dirty      bool
}

func newLineChart(width, height int) *lineChart {
	width, height = max(width, 1), max(height, 1)
	c := &lineChart{
		Model: linechart.New(width, height, 0, 1, 0, 1,
			linechart.WithXYSteps(4, 3),
			linechart.WithYLabelFormatter(formatYLabel),
		),
		dirty: true,
	}
	c.AxisStyle = axisStyle
	c.LabelStyle = labelStyle
	return c
}

// SetLines replaces the plotted series. n is the number of rows on the x axis.
func (c *lineChart) SetLines(n int, lines []line) {
	c.lines = lines
	c.n = n
	c.yMin, c.yMax = math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		for _, y := range l.ys {
			if math.IsNaN(y) {
				continue
			}
			c.yMin = min(c.yMin, y)
			c.yMax = max(c.yMax, y)
		}
	}
	c.updateRanges()
	c.dirty = true
}

func (c *lineChart) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if c.Width() == width && c.Height() == height {
		return
	}
	c.Model.Resize(width, height)
	c.updateRanges()
	c.dirty = true
}

func (c *lineChart) empty() bool {
	return math.IsInf(c.yMin, 1)
}

func (c *lineChart) updateRanges() {
	if c.empty() {
		return
	}
	padding := (c.yMax - c.yMin) * 0.1
	if padding < 1e-6 {
		padding = 0.1
	}
	yMin, yMax := c.yMin-padding, c.yMax+padding
	xMax := float64(max(c.n-1, 1))

	c.SetYRange(yMin, yMax)
	c.SetViewYRange(yMin, yMax)
	c.SetXRange(0, xMax)
	c.SetViewXRange(0, xMax)
	c.SetXYRange(c.MinX(), c.MaxX(), yMin, yMax)
}

func (c *lineChart) draw() {
	c.Clear()
	c.DrawXYAxisAndLabel()
	c.dirty = false
	if c.empty() || c.GraphWidth() <= 0 || c.GraphHeight() <= 0 {
		return
	}

	xRange := c.ViewMaxX() - c.ViewMinX()
	yRange := c.ViewMaxY() - c.ViewMinY()
	if xRange <= 0 {
		xRange = 1
	}
	if yRange <= 0 {
		yRange = 1
	}
	xScale := float64(c.GraphWidth()) / xRange
	yScale := float64(c.GraphHeight()) / yRange

	startX := 0
	if c.YStep() > 0 {
		startX = c.Origin().X + 1
	}

	for _, l := range c.lines {
		grid := graph.NewBrailleGrid(c.GraphWidth(), c.GraphHeight(),
			0, float64(c.GraphWidth()), 0, float64(c.GraphHeight()))

		var prev *canvas.Point
		for i, y := range l.ys {
			if math.IsNaN(y) {
				prev = nil
				continue
			}
			fp := canvas.Float64Point{
				X: (float64(i) - c.ViewMinX()) * xScale,
				Y: (y - c.ViewMinY()) * yScale,
			}
			gp := grid.GridPoint(fp)
			if prev == nil {
				grid.Set(gp)
			} else {
				bresenhamLine(grid, *prev, gp)
			}
			prev = &gp
		}
		graph.DrawBraillePatterns(&c.Canvas, canvas.Point{X: startX, Y: 0}, grid.BraillePatterns(), l.style)
	}
}

func (c *lineChart) View() string {
	if c.dirty {
		c.draw()
	}
	return c.Model.View()
}

func bresenhamLine(grid *graph.BrailleGrid, p1, p2 canvas.Point) {
	dx := absInt(p2.X - p1.X)
	dy := absInt(p2.Y - p1.Y)
	sx, sy := 1, 1
	if p1.X > p2.X {
		sx = -1
	}
	if p1.Y > p2.Y {
		sy = -1
	}

	err := dx - dy
	x, y := p1.X, p1.Y
	for {
		grid.Set(canvas.Point{X: x, Y: y})
		if x == p2.X && y == p2.Y {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func formatYLabel(_ int, v float64) string {
	a := math.Abs(v)
	switch {
	case a == 0:
		return "0"
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case a >= 1:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.3f", v)
	}
}
