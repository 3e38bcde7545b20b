package palette

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignFirstAppearanceOrder(t *testing.T) {
	a := New()
	a.Assign([]string{"B", "A"})
	a.Assign([]string{"A", "C"})

	for id, want := range map[string]int{"B": 0, "A": 1, "C": 2} {
		slot, ok := a.Slot(id)
		require.True(t, ok, id)
		assert.Equal(t, want, slot, id)
	}
	assert.Equal(t, 3, a.Len())
}

func TestColorSurvivesDeselectReselect(t *testing.T) {
	a := New()
	a.Assign([]string{"A", "B"})
	before, ok := a.Color("B")
	require.True(t, ok)

	a.Assign([]string{"A"})
	a.Assign(nil)
	a.Assign([]string{"C", "D", "B"})

	after, ok := a.Color("B")
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestColorWrapsModuloPalette(t *testing.T) {
	a := New(Color{Name: "red", Hex: "#f00"}, Color{Name: "blue", Hex: "#00f"})
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, fmt.Sprintf("s%d", i))
	}
	a.Assign(ids)

	c0, _ := a.Color("s0")
	c2, _ := a.Color("s2")
	c3, _ := a.Color("s3")
	assert.Equal(t, c0, c2)
	assert.Equal(t, "blue", c3.Name)
	assert.Equal(t, 2, a.Size())
}

func TestUnknownSeries(t *testing.T) {
	a := New()
	_, ok := a.Color("nope")
	assert.False(t, ok)
	_, ok = a.Slot("nope")
	assert.False(t, ok)
}
