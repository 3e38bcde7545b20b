package dataset

import "slices"

// Selection is the outcome of one tree interaction: the expanded set of
// checked node ids for display and the plottable series in canonical order.
type Selection struct {
	Checked []string
	Plot    []string
}

// Has reports whether node id is checked.
func (s Selection) Has(id string) bool {
	return slices.Contains(s.Checked, id)
}

// Expand unions in the member columns of every category id present in ids.
// The result is sorted and free of duplicates; it is a superset of ids and
// Expand(Expand(ids)) equals Expand(ids).
func Expand(d Dataset, ids []string) []string {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
		if c, ok := CategoryOf(id); ok {
			for _, m := range d.Members(c) {
				set[m] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// Plottable derives the series list from a set of checked ids. When the
// series category is checked every series column is plottable, regardless of
// which leaves are present. Time and Other selections never contribute.
func Plottable(d Dataset, ids []string) []string {
	if slices.Contains(ids, SeriesCategoryID) {
		plot := d.Members(Series)
		slices.Sort(plot)
		return slices.Compact(plot)
	}
	set := make(map[string]struct{})
	for _, id := range ids {
		if d.IsPlottable(id) {
			set[id] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Reconcile resolves a new raw checked set against the previous one.
// A category that stays checked while one of its members was unchecked is
// dropped, so the leaf deselection survives expansion. A category that was
// unchecked takes all of its members with it.
func Reconcile(d Dataset, prev, next []string) []string {
	prevSet := toSet(prev)
	out := toSet(next)
	for _, c := range categories {
		id := c.ID()
		_, wasChecked := prevSet[id]
		if !wasChecked {
			continue
		}
		members := d.Members(c)
		if _, stillChecked := out[id]; stillChecked {
			for _, m := range members {
				_, had := prevSet[m]
				_, has := out[m]
				if had && !has {
					delete(out, id)
					break
				}
			}
			continue
		}
		for _, m := range members {
			delete(out, m)
		}
	}
	return sortedKeys(out)
}

// Select runs one interaction through reconciliation, expansion and plot
// derivation. prev is the expanded set produced by the previous interaction.
func Select(d Dataset, prev, raw []string) Selection {
	checked := Expand(d, Reconcile(d, prev, raw))
	return Selection{
		Checked: checked,
		Plot:    Plottable(d, checked),
	}
}

// SelectionFor rebuilds the tree state for a stored plot list, checking the
// series category when the plot covers every series column.
func SelectionFor(d Dataset, plot []string) Selection {
	ids := slices.Clone(plot)
	if len(d.SeriesCols) > 0 && containsAll(plot, d.SeriesCols) {
		ids = append(ids, SeriesCategoryID)
	}
	checked := Expand(d, ids)
	return Selection{
		Checked: checked,
		Plot:    Plottable(d, checked),
	}
}

func containsAll(haystack, needles []string) bool {
	for _, n := range needles {
		if !slices.Contains(haystack, n) {
			return false
		}
	}
	return true
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
