// Package window reconciles the row-window channels of the viewer (slider
// drag, slider commit and two debounced text fields) into one consistent
// (offset, limit) pair.
package window

// State is the row window. Offset and Limit are the committed values; Lower
// and Upper are the display bounds, which satisfy Upper-Lower == Limit after
// every commit. Max bounds the window when it is positive.
type State struct {
	Offset int
	Limit  int
	Lower  int
	Upper  int
	Max    int
}

// Action is a change to the window. Only the types in this package
// implement it.
type Action interface {
	apply(State) State
}

// SetOffset commits a new offset, keeping the limit.
type SetOffset struct{ Offset int }

// SetLimit commits a new limit, keeping the offset.
type SetLimit struct{ Limit int }

// SetRange commits both bounds at once, as a completed slider drag does.
type SetRange struct{ Lower, Upper int }

// Drag moves the display bounds without committing anything.
type Drag struct{ Lower, Upper int }

// Seed returns the window for a freshly opened dataset.
func Seed(maxLength, offset, limit int) State {
	return commit(State{Max: maxLength}, offset, limit)
}

// Reduce applies a to s and returns the resulting state.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func (a SetOffset) apply(s State) State {
	if a.Offset < 0 {
		return s
	}
	return commit(s, a.Offset, s.Limit)
}

func (a SetLimit) apply(s State) State {
	if a.Limit < 0 {
		return s
	}
	return commit(s, s.Offset, a.Limit)
}

func (a SetRange) apply(s State) State {
	lo, hi := a.Lower, a.Upper
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	return commit(s, lo, hi-lo)
}

func (a Drag) apply(s State) State {
	lo, hi := a.Lower, a.Upper
	if hi < lo {
		lo, hi = hi, lo
	}
	s.Lower = s.clamp(lo)
	s.Upper = s.clamp(hi)
	return s
}

// commit stores offset and limit and recomputes the display pair, clamping
// the window into [0, Max] when Max is known.
func commit(s State, offset, limit int) State {
	offset = max(offset, 0)
	limit = max(limit, 0)
	if s.Max > 0 {
		offset = min(offset, s.Max)
		limit = min(offset+limit, s.Max) - offset
	}
	s.Offset, s.Limit = offset, limit
	s.Lower, s.Upper = offset, offset+limit
	return s
}

func (s State) clamp(v int) int {
	v = max(v, 0)
	if s.Max > 0 {
		v = min(v, s.Max)
	}
	return v
}

// Dirty reports whether the display bounds differ from the committed window,
// which happens while a drag is in progress.
func (s State) Dirty() bool {
	return s.Lower != s.Offset || s.Upper != s.Offset+s.Limit
}
