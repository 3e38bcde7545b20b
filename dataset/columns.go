package dataset

import "slices"

// Category is the classification of a dataset column.
type Category int

const (
	Unknown Category = iota
	Time
	Series
	Other
)

// Category node ids used by the grouped column tree.
const (
	TimeCategoryID   = "ts_col_time"
	SeriesCategoryID = "ts_col_series"
	OtherCategoryID  = "ts_col_other"
)

var categories = []Category{Time, Series, Other}

func (c Category) String() string {
	switch c {
	case Time:
		return "time"
	case Series:
		return "series"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// ID returns the tree node id of the category, or "" for Unknown.
func (c Category) ID() string {
	switch c {
	case Time:
		return TimeCategoryID
	case Series:
		return SeriesCategoryID
	case Other:
		return OtherCategoryID
	default:
		return ""
	}
}

// Label is the display title of the category's group.
func (c Category) Label() string {
	switch c {
	case Time:
		return "Time Columns"
	case Series:
		return "Numeric Columns"
	case Other:
		return "Other Columns"
	default:
		return ""
	}
}

// CategoryOf maps a category node id back to its Category.
func CategoryOf(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID() == id {
			return c, true
		}
	}
	return Unknown, false
}

// IsCategoryID reports whether id names a category node rather than a column.
func IsCategoryID(id string) bool {
	_, ok := CategoryOf(id)
	return ok
}

// Classify returns the category of column id. Series wins over Time when a
// column is listed in both.
func (d Dataset) Classify(id string) Category {
	switch {
	case slices.Contains(d.SeriesCols, id):
		return Series
	case slices.Contains(d.TimestampCols, id):
		return Time
	case slices.Contains(d.OtherCols, id):
		return Other
	default:
		return Unknown
	}
}

// IsPlottable reports whether column id holds numeric series data.
func (d Dataset) IsPlottable(id string) bool {
	return d.Classify(id) == Series
}

// Members returns the column ids belonging to category c.
func (d Dataset) Members(c Category) []string {
	switch c {
	case Time:
		return slices.Clone(d.TimestampCols)
	case Series:
		return slices.Clone(d.SeriesCols)
	case Other:
		return slices.Clone(d.OtherCols)
	default:
		return nil
	}
}

// Group is one category node of the column tree with its member leaves.
type Group struct {
	ID       string
	Label    string
	Category Category
	Children []string
}

// Groups returns the grouped column tree: one group per non-empty category,
// in Time, Series, Other order.
func (d Dataset) Groups() []Group {
	var groups []Group
	for _, c := range categories {
		members := d.Members(c)
		if len(members) == 0 {
			continue
		}
		groups = append(groups, Group{
			ID:       c.ID(),
			Label:    c.Label(),
			Category: c,
			Children: members,
		})
	}
	return groups
}
