// Package palette hands out stable series colors in order of first
// appearance.
package palette

import "github.com/charmbracelet/lipgloss"

// Color is one palette entry.
type Color struct {
	Name string
	Hex  string
}

// Style returns a terminal style drawing in c.
func (c Color) Style() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex))
}

// Default is the eight color chart palette.
var Default = []Color{
	{Name: "red", Hex: "#e41a1c"},
	{Name: "blue", Hex: "#377eb8"},
	{Name: "gray", Hex: "#999999"},
	{Name: "orange", Hex: "#ff7f00"},
	{Name: "green", Hex: "#4daf4a"},
	{Name: "purple", Hex: "#984ea3"},
	{Name: "yellow", Hex: "#d4b000"},
	{Name: "black", Hex: "#222222"},
}

// Assigner maps series ids to palette slots. Slots are handed out in order of
// first appearance and never revoked, so a series keeps its color across
// deselect/reselect cycles. Slots wrap modulo the palette size.
type Assigner struct {
	colors []Color
	slots  map[string]int
}

// New returns an Assigner over colors, or over Default when none are given.
func New(colors ...Color) *Assigner {
	if len(colors) == 0 {
		colors = Default
	}
	return &Assigner{
		colors: append([]Color(nil), colors...),
		slots:  make(map[string]int),
	}
}

// Assign gives every id that has not been seen before the next slot, in the
// order the ids are listed.
func (a *Assigner) Assign(ids []string) {
	for _, id := range ids {
		if _, ok := a.slots[id]; ok {
			continue
		}
		a.slots[id] = len(a.slots)
	}
}

// Slot returns the first-appearance index of id.
func (a *Assigner) Slot(id string) (int, bool) {
	slot, ok := a.slots[id]
	return slot, ok
}

// Color returns the color assigned to id.
func (a *Assigner) Color(id string) (Color, bool) {
	slot, ok := a.slots[id]
	if !ok {
		return Color{}, false
	}
	return a.colors[slot%len(a.colors)], true
}

// Len is the number of ids that have been assigned a slot.
func (a *Assigner) Len() int {
	return len(a.slots)
}

// Size is the number of distinct colors in the palette.
func (a *Assigner) Size() int {
	return len(a.colors)
}
