package tsview

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bpowers/tsview/dataset"
)

// tuple is what a descriptor persists: the plotted series and the window.
type tuple struct {
	plot   []string
	offset int
	limit  int
}

func (t tuple) equal(o tuple) bool {
	return t.offset == o.offset && t.limit == o.limit && slices.Equal(t.plot, o.plot)
}

// syncState tracks descriptor writes for one dataset.
type syncState struct {
	// rev is bumped for every write issued. Only the answer carrying the
	// latest rev is applied.
	rev         uint64
	creating    bool
	// parked holds the newest descriptor requested while the create was in
	// flight. It is sent as an update once the create confirms.
	parked      *dataset.Opset
	inFlight    int
	// pending is the descriptor carried by the write with the latest rev
	// until its answer arrives.
	pending     *dataset.Opset
	// accepted is the newest successful answer that was dropped because a
	// later write was outstanding. It is applied if that write fails.
	// acceptedRev never falls below the rev of the last applied answer.
	accepted    *dataset.Opset
	acceptedRev uint64
}

// unsynced never equals a real tuple, so the next change is always written.
var unsynced = tuple{offset: -1}

func opsetTuple(o dataset.Opset) tuple {
	return tuple{plot: slices.Clone(o.Plot), offset: o.Offset, limit: o.Limit}
}

func (v *Viewer) syncFor(datasetID string) *syncState {
	st, ok := v.syncs[datasetID]
	if !ok {
		st = &syncState{}
		v.syncs[datasetID] = st
	}
	return st
}

func (v *Viewer) currentTuple() tuple {
	w := v.win.State()
	return tuple{plot: slices.Clone(v.selection.Plot), offset: w.Offset, limit: w.Limit}
}

// syncTuple persists the current tuple if it differs from the last one. A
// dataset without a descriptor gets exactly one create; every later change
// is an update addressed by the id the create returned.
func (v *Viewer) syncTuple() tea.Cmd {
	ds, ok := v.find(v.current)
	if !ok {
		return nil
	}
	t := v.currentTuple()
	if t.equal(v.last) {
		return nil
	}
	v.last = t

	o := dataset.Opset{
		ID:        dataset.UnsetID,
		DatasetID: ds.ID,
		Plot:      t.plot,
		Offset:    t.offset,
		Limit:     t.limit,
	}
	if cur, ok := ds.Opset(); ok && cur.Confirmed() {
		o.ID = cur.ID
		return v.update(o)
	}
	st := v.syncFor(ds.ID)
	if st.creating {
		v.logger.Debug("parking descriptor change until create confirms", "dataset", ds.ID)
		st.parked = &o
		return nil
	}
	return v.create(o)
}

func (v *Viewer) create(o dataset.Opset) tea.Cmd {
	st := v.syncFor(o.DatasetID)
	st.creating = true
	return v.write(st, o, true)
}

func (v *Viewer) update(o dataset.Opset) tea.Cmd {
	return v.write(v.syncFor(o.DatasetID), o, false)
}

func (v *Viewer) write(st *syncState, o dataset.Opset, create bool) tea.Cmd {
	st.rev++
	st.inFlight++
	rev := st.rev
	pending := o.Clone()
	st.pending = &pending
	backend, timeout := v.backend, v.timeout
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		var got dataset.Opset
		var err error
		if create {
			got, err = backend.CreateOpset(ctx, o)
		} else {
			got, err = backend.UpdateOpset(ctx, o)
		}
		return opsetWrittenMsg{datasetID: o.DatasetID, rev: rev, create: create, opset: got, err: err}
	}
}

func (v *Viewer) applyWrite(msg opsetWrittenMsg) tea.Cmd {
	st := v.syncFor(msg.datasetID)
	st.inFlight--
	if msg.create {
		st.creating = false
	}
	if msg.rev != st.rev {
		if msg.err == nil && msg.rev > st.acceptedRev {
			o := msg.opset.Clone()
			st.accepted, st.acceptedRev = &o, msg.rev
		}
		v.logger.Debug("dropping stale descriptor write", "dataset", msg.datasetID, "rev", msg.rev, "latest", st.rev)
		return nil
	}
	st.pending = nil
	accepted := st.accepted
	st.accepted, st.acceptedRev = nil, msg.rev

	ds, ok := v.find(msg.datasetID)
	if msg.err != nil {
		v.logger.Warn("descriptor write failed", "dataset", msg.datasetID, "create", msg.create, "error", msg.err)
		v.setErr(msg.datasetID, msg.err)
		if msg.create && st.parked != nil && ok {
			o := *st.parked
			st.parked = nil
			return v.create(o)
		}
		v.writeFailed(msg.datasetID, accepted)
		return nil
	}
	if !ok {
		v.logger.Debug("descriptor confirmed for a dataset that left the catalog", "dataset", msg.datasetID)
		st.parked = nil
		return nil
	}

	v.setErr(msg.datasetID, nil)
	v.replace(ds.WithOpset(msg.opset))
	v.logger.Debug("descriptor confirmed", "dataset", msg.datasetID, "opset", msg.opset.ID, "create", msg.create)

	if msg.create && st.parked != nil {
		o := *st.parked
		st.parked = nil
		o.ID = msg.opset.ID
		return v.update(o)
	}
	if msg.datasetID != v.current {
		return nil
	}
	if t := opsetTuple(msg.opset); !t.equal(v.currentTuple()) {
		// The view was seeded before this write was issued.
		v.reseed(msg.opset)
	}
	v.last = opsetTuple(msg.opset)
	return v.fetch(msg.opset)
}

// writeFailed settles a dataset after its latest write failed. An earlier
// write the backend accepted becomes the stored descriptor, and the open
// view forgets the failed tuple so repeating the gesture writes again.
func (v *Viewer) writeFailed(datasetID string, accepted *dataset.Opset) {
	ds, ok := v.find(datasetID)
	if !ok {
		return
	}
	if accepted != nil {
		v.logger.Debug("keeping earlier accepted descriptor", "dataset", datasetID, "opset", accepted.ID)
		ds = ds.WithOpset(*accepted)
		v.replace(ds)
	}
	if datasetID != v.current {
		return
	}
	if o, has := ds.Opset(); has && o.Confirmed() {
		v.last = opsetTuple(o)
	} else {
		v.last = unsynced
	}
}

// reseed points the open view's selection and window at o.
func (v *Viewer) reseed(o dataset.Opset) {
	ds, ok := v.find(v.current)
	if !ok {
		return
	}
	v.win.Seed(ds.WithOpset(o))
	v.selection = dataset.SelectionFor(ds, o.Plot)
	v.colors.Assign(v.selection.Plot)
}
