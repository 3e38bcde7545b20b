package tsview

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/window"
)

// OpenDataset makes id the open dataset. The selection and window are seeded
// from its descriptor when it has one, in which case the descriptor's window
// is fetched right away; otherwise nothing is plotted and the window spans
// the whole dataset. A descriptor write still in flight for id wins over the
// stored descriptor, and its window is fetched once the write confirms. Any
// forecast of the previously open dataset is dropped.
func (v *Viewer) OpenDataset(id string) tea.Cmd {
	ds, ok := v.find(id)
	if !ok {
		v.logger.Warn("open unknown dataset", "dataset", id)
		return nil
	}
	v.reset()
	v.current = id

	if o, ok := v.unconfirmed(id); ok {
		v.win.Seed(ds.WithOpset(o))
		v.selection = dataset.SelectionFor(ds, o.Plot)
		v.colors.Assign(v.selection.Plot)
		v.last = opsetTuple(o)
		return nil
	}
	v.win.Seed(ds)
	if o, ok := ds.Opset(); ok && o.Confirmed() {
		v.selection = dataset.SelectionFor(ds, o.Plot)
		v.colors.Assign(v.selection.Plot)
		v.last = opsetTuple(o)
		return v.fetch(o)
	}
	st := v.win.State()
	v.selection = dataset.Selection{}
	v.last = tuple{offset: st.Offset, limit: st.Limit}
	return nil
}

// unconfirmed returns the newest descriptor requested for datasetID that the
// backend has not answered yet.
func (v *Viewer) unconfirmed(datasetID string) (dataset.Opset, bool) {
	st, ok := v.syncs[datasetID]
	switch {
	case !ok:
		return dataset.Opset{}, false
	case st.parked != nil:
		return st.parked.Clone(), true
	case st.pending != nil:
		return st.pending.Clone(), true
	}
	return dataset.Opset{}, false
}

// Close leaves the open dataset. Outstanding answers for it are dropped.
func (v *Viewer) Close() {
	v.reset()
	v.current = ""
	v.selection = dataset.Selection{}
	v.last = tuple{}
}

// reset invalidates every fetch and forecast in flight and clears what they
// produced.
func (v *Viewer) reset() {
	v.fetchGen++
	v.forecastGen++
	v.loading = false
	v.forecastLoading = false
	v.points = nil
	v.forecast = nil
}

// Toggle applies one interaction with the column tree. checked is the full
// set of checked node ids after the interaction, not a delta.
func (v *Viewer) Toggle(checked []string) tea.Cmd {
	ds, ok := v.find(v.current)
	if !ok {
		return nil
	}
	v.selection = dataset.Select(ds, v.selection.Checked, checked)
	v.colors.Assign(v.selection.Plot)
	return v.syncTuple()
}

// Drag moves the display bounds of the window. Nothing is committed until
// DragDone.
func (v *Viewer) Drag(lower, upper int) {
	if v.current == "" {
		return
	}
	v.win.Dispatch(window.Drag{Lower: lower, Upper: upper})
}

// DragDone commits [lower, upper) as the window.
func (v *Viewer) DragDone(lower, upper int) tea.Cmd {
	if v.current == "" {
		return nil
	}
	v.win.Dispatch(window.SetRange{Lower: lower, Upper: upper})
	return v.syncTuple()
}

// TypeOffset records an edit of the offset field. The value commits once
// the field has been quiet for the debounce period.
func (v *Viewer) TypeOffset(text string) tea.Cmd {
	return v.input(window.OffsetField, text)
}

// TypeLimit records an edit of the limit field.
func (v *Viewer) TypeLimit(text string) tea.Cmd {
	return v.input(window.LimitField, text)
}

func (v *Viewer) input(f window.Field, text string) tea.Cmd {
	if v.current == "" {
		return nil
	}
	return v.win.Input(f, text)
}
