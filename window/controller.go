package window

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bpowers/tsview/dataset"
	"github.com/bpowers/tsview/internal/logging"
)

// DefaultDebounce is the quiet period a text field must observe before its
// value commits.
const DefaultDebounce = 1000 * time.Millisecond

var logger = logging.For("window")

// Field names one of the two text inputs.
type Field int

const (
	OffsetField Field = iota
	LimitField
)

func (f Field) String() string {
	if f == LimitField {
		return "limit"
	}
	return "offset"
}

// SettledMsg is delivered when a text field has been quiet for the debounce
// period. Only the message carrying the field's latest sequence commits.
type SettledMsg struct {
	Field Field
	Seq   uint64
}

// Controller owns the window state and the text fields that feed it. Every
// channel ends in Reduce, so the state is consistent after each commit.
type Controller struct {
	state   State
	delay   time.Duration
	text    [2]string
	seq     [2]uint64
	pending [2]bool
}

// NewController returns a controller whose text fields debounce for delay.
func NewController(delay time.Duration) *Controller {
	if delay < 0 {
		delay = 0
	}
	return &Controller{delay: delay}
}

// Seed resets the window for ds: the stored descriptor's window when there
// is one, otherwise the whole dataset. Pending text edits are abandoned.
func (c *Controller) Seed(ds dataset.Dataset) {
	offset, limit := 0, ds.MaxLength
	if op, ok := ds.Opset(); ok {
		offset, limit = op.Offset, op.Limit
	}
	c.state = Seed(ds.MaxLength, offset, limit)
	for i := range c.seq {
		c.seq[i]++
		c.pending[i] = false
	}
	c.syncText()
}

// State returns the current window.
func (c *Controller) State() State {
	return c.state
}

// Text returns the display text of field f.
func (c *Controller) Text(f Field) string {
	return c.text[f]
}

// Dispatch applies a to the window immediately.
func (c *Controller) Dispatch(a Action) {
	c.state = Reduce(c.state, a)
	if _, isDrag := a.(Drag); !isDrag {
		c.syncText()
	}
}

// Input records an edit of field f and returns the command that will report
// the end of its quiet period.
func (c *Controller) Input(f Field, text string) tea.Cmd {
	c.text[f] = text
	c.seq[f]++
	c.pending[f] = true
	seq := c.seq[f]
	return tea.Tick(c.delay, func(time.Time) tea.Msg {
		return SettledMsg{Field: f, Seq: seq}
	})
}

// Settle commits the field named by msg if no later edit superseded it. It
// reports whether an action was dispatched.
func (c *Controller) Settle(msg SettledMsg) bool {
	f := msg.Field
	if msg.Seq != c.seq[f] || !c.pending[f] {
		return false
	}
	c.pending[f] = false

	n, err := strconv.Atoi(strings.TrimSpace(c.text[f]))
	if err != nil || n < 0 {
		logger.Warn("rejecting window input", "field", f.String(), "text", c.text[f])
		return false
	}
	switch f {
	case OffsetField:
		c.Dispatch(SetOffset{Offset: n})
	case LimitField:
		c.Dispatch(SetLimit{Limit: n})
	}
	return true
}

// syncText rewrites the text of every field that is not mid-edit so it shows
// the committed value.
func (c *Controller) syncText() {
	if !c.pending[OffsetField] {
		c.text[OffsetField] = strconv.Itoa(c.state.Offset)
	}
	if !c.pending[LimitField] {
		c.text[LimitField] = strconv.Itoa(c.state.Limit)
	}
}
