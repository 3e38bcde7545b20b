// Package tui is the terminal front end of the viewer: a dataset list, the
// grouped column tree, the row window controls and a braille chart, all
// driven by a tsview.Viewer.
package tui

import (
	"slices"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bpowers/tsview"
	"github.com/bpowers/tsview/window"
)

// DefaultHorizon is the number of rows a forecast projects.
const DefaultHorizon = 10

type pane int

const (
	paneDatasets pane = iota
	paneTree
	paneWindow
	paneOffset
	paneLimit
	paneCount
)

type Option func(*App)

// WithHorizon sets the forecast horizon.
func WithHorizon(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.horizon = n
		}
	}
}

// App is the bubbletea model of the terminal front end.
type App struct {
	viewer  *tsview.Viewer
	keys    keyMap
	help    help.Model
	horizon int

	width  int
	height int
	focus  pane

	dsCursor   int
	treeCursor int

	offset textinput.Model
	limit  textinput.Model

	// pendingDelete is the dataset awaiting a y/n confirmation.
	pendingDelete string
	status        string

	chart *lineChart
}

// New returns the front end for v.
func New(v *tsview.Viewer, opts ...Option) *App {
	a := &App{
		viewer:  v,
		keys:    defaultKeys(),
		help:    help.New(),
		horizon: DefaultHorizon,
		offset:  newField("offset "),
		limit:   newField("limit  "),
		chart:   newLineChart(60, 12),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func newField(prompt string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.CharLimit = 12
	ti.Width = 12
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func (a *App) Init() tea.Cmd {
	return a.viewer.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		return a, nil
	case tea.KeyMsg:
		cmd := a.handleKey(msg)
		a.syncFields()
		return a, cmd
	}
	cmd := a.viewer.Update(msg)
	a.clampCursors()
	a.syncFields()
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.Interrupted) {
		return tea.Quit
	}
	if a.pendingDelete != "" {
		return a.confirmDelete(msg)
	}
	if a.focus == paneOffset || a.focus == paneLimit {
		return a.handleFieldKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.NextPane):
		a.setFocus((a.focus + 1) % paneCount)
		return nil
	case key.Matches(msg, a.keys.PrevPane):
		a.setFocus((a.focus + paneCount - 1) % paneCount)
		return nil
	case key.Matches(msg, a.keys.Refresh):
		return a.viewer.Refresh()
	case key.Matches(msg, a.keys.Forecast):
		return a.requestForecast()
	case key.Matches(msg, a.keys.Back):
		a.back()
		return nil
	}

	switch a.focus {
	case paneDatasets:
		return a.handleDatasetKey(msg)
	case paneTree:
		return a.handleTreeKey(msg)
	case paneWindow:
		return a.handleWindowKey(msg)
	}
	return nil
}

func (a *App) handleDatasetKey(msg tea.KeyMsg) tea.Cmd {
	datasets := a.viewer.Datasets()
	switch {
	case key.Matches(msg, a.keys.Up):
		a.dsCursor = max(a.dsCursor-1, 0)
	case key.Matches(msg, a.keys.Down):
		a.dsCursor = min(a.dsCursor+1, max(len(datasets)-1, 0))
	case key.Matches(msg, a.keys.Open):
		if a.dsCursor < len(datasets) {
			a.treeCursor = 0
			a.status = ""
			a.setFocus(paneTree)
			return a.viewer.OpenDataset(datasets[a.dsCursor].ID)
		}
	case key.Matches(msg, a.keys.Delete):
		if a.dsCursor < len(datasets) {
			a.pendingDelete = datasets[a.dsCursor].ID
		}
	}
	return nil
}

func (a *App) confirmDelete(msg tea.KeyMsg) tea.Cmd {
	id := a.pendingDelete
	switch {
	case key.Matches(msg, a.keys.Confirm):
		a.pendingDelete = ""
		return a.viewer.Delete(id)
	case key.Matches(msg, a.keys.Cancel):
		a.pendingDelete = ""
	}
	return nil
}

// treeNode is one row of the flattened column tree.
type treeNode struct {
	id    string
	label string
	group bool
}

func (a *App) treeNodes() []treeNode {
	var nodes []treeNode
	for _, g := range a.viewer.Groups() {
		nodes = append(nodes, treeNode{id: g.ID, label: g.Label, group: true})
		for _, c := range g.Children {
			nodes = append(nodes, treeNode{id: c, label: c})
		}
	}
	return nodes
}

func (a *App) handleTreeKey(msg tea.KeyMsg) tea.Cmd {
	nodes := a.treeNodes()
	switch {
	case key.Matches(msg, a.keys.Up):
		a.treeCursor = max(a.treeCursor-1, 0)
	case key.Matches(msg, a.keys.Down):
		a.treeCursor = min(a.treeCursor+1, max(len(nodes)-1, 0))
	case key.Matches(msg, a.keys.Toggle):
		if a.treeCursor >= len(nodes) {
			return nil
		}
		id := nodes[a.treeCursor].id
		checked := a.viewer.Selection().Checked
		if i := slices.Index(checked, id); i >= 0 {
			checked = slices.Delete(checked, i, i+1)
		} else {
			checked = append(checked, id)
		}
		return a.viewer.Toggle(checked)
	}
	return nil
}

// step is how far one window key moves a bound.
func (a *App) step() int {
	st := a.viewer.Window()
	if st.Max > 0 {
		return max(st.Max/20, 1)
	}
	return max(st.Limit/10, 1)
}

func (a *App) handleWindowKey(msg tea.KeyMsg) tea.Cmd {
	if _, ok := a.viewer.Current(); !ok {
		return nil
	}
	st := a.viewer.Window()
	lo, hi := st.Lower, st.Upper
	d := a.step()
	switch {
	case key.Matches(msg, a.keys.Left):
		d = min(d, lo)
		a.viewer.Drag(lo-d, hi-d)
	case key.Matches(msg, a.keys.Right):
		if st.Max > 0 {
			d = min(d, st.Max-hi)
		}
		a.viewer.Drag(lo+d, hi+d)
	case key.Matches(msg, a.keys.Shrink):
		a.viewer.Drag(lo, max(hi-d, lo))
	case key.Matches(msg, a.keys.Grow):
		a.viewer.Drag(lo, hi+d)
	case key.Matches(msg, a.keys.Commit):
		return a.viewer.DragDone(lo, hi)
	}
	return nil
}

func (a *App) handleFieldKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.NextPane):
		a.setFocus((a.focus + 1) % paneCount)
		return nil
	case key.Matches(msg, a.keys.PrevPane):
		a.setFocus((a.focus + paneCount - 1) % paneCount)
		return nil
	case key.Matches(msg, a.keys.Back):
		a.setFocus(paneWindow)
		return nil
	}

	field, ti := window.OffsetField, &a.offset
	if a.focus == paneLimit {
		field, ti = window.LimitField, &a.limit
	}
	before := ti.Value()
	var cmd tea.Cmd
	*ti, cmd = ti.Update(msg)
	if ti.Value() == before {
		return cmd
	}
	if field == window.OffsetField {
		return tea.Batch(cmd, a.viewer.TypeOffset(ti.Value()))
	}
	return tea.Batch(cmd, a.viewer.TypeLimit(ti.Value()))
}

func (a *App) requestForecast() tea.Cmd {
	cmd, err := a.viewer.RequestForecast("", a.horizon)
	if err != nil {
		a.status = err.Error()
		return nil
	}
	a.status = ""
	return cmd
}

func (a *App) back() {
	if a.viewer.Alert() != "" {
		a.viewer.DismissAlert()
		return
	}
	if a.status != "" {
		a.status = ""
		return
	}
	if _, ok := a.viewer.Current(); ok {
		a.viewer.Close()
		a.setFocus(paneDatasets)
	}
}

func (a *App) setFocus(p pane) {
	a.focus = p
	a.offset.Blur()
	a.limit.Blur()
	switch p {
	case paneOffset:
		a.offset.Focus()
	case paneLimit:
		a.limit.Focus()
	}
}

// syncFields copies the engine's field text into the inputs that are not
// being edited.
func (a *App) syncFields() {
	if a.focus != paneOffset {
		a.offset.SetValue(a.viewer.Text(window.OffsetField))
	}
	if a.focus != paneLimit {
		a.limit.SetValue(a.viewer.Text(window.LimitField))
	}
}

func (a *App) clampCursors() {
	a.dsCursor = min(a.dsCursor, max(len(a.viewer.Datasets())-1, 0))
	a.treeCursor = min(a.treeCursor, max(len(a.treeNodes())-1, 0))
}

// chartLines builds one line per plotted series plus the forecast overlay.
func (a *App) chartLines() (int, []line) {
	points := a.viewer.Display()
	series := a.viewer.Selection().Plot
	var lines []line
	add := func(id string, style func() (line, bool)) {
		l, ok := style()
		if !ok {
			return
		}
		l.ys = make([]float64, len(points))
		for i, p := range points {
			v, ok := p.Data[id]
			if !ok {
				v = nan
			}
			l.ys[i] = v
		}
		lines = append(lines, l)
	}
	for _, id := range series {
		add(id, func() (line, bool) {
			c, ok := a.viewer.Color(id)
			return line{style: c.Style()}, ok
		})
	}
	if f, ok := a.viewer.Forecast(); ok {
		center := func() (line, bool) {
			if c, ok := a.viewer.Color(f.SeriesID); ok {
				return line{style: c.Style().Bold(true)}, true
			}
			return line{style: bandStyle}, true
		}
		band := func() (line, bool) { return line{style: bandStyle}, true }
		add(f.UpperName(), band)
		add(f.LowerName(), band)
		add(f.CenterName(), center)
	}
	return len(points), lines
}

// selected reports whether id is checked in the tree.
func (a *App) selected(id string) bool {
	return a.viewer.Selection().Has(id)
}
