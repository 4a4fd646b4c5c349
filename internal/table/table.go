package table

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicateKey is returned when a yearly table holds the same grid
	// cell more than once.
	ErrDuplicateKey = errors.New("duplicate grid cell")

	// ErrColumnConflict is returned when a column is merged twice with
	// different values.
	ErrColumnConflict = errors.New("column already merged with different values")
)

// Key identifies a grid cell.
type Key struct {
	Lat float64
	Lon float64
}

// Row is a single grid cell reading. A NaN value marks a missing
// measurement (ocean).
type Row struct {
	Key
	Value float64
}

// Null reports whether the row has no measurement.
func (r Row) Null() bool {
	return math.IsNaN(r.Value)
}

// Yearly is one year's raster in tabular form: one row per grid cell and
// a single measurement column.
type Yearly struct {
	Column string
	Rows   []Row
}

// ColumnName returns the year-qualified column name, e.g. pm1998.
func ColumnName(prefix string, year int) string {
	return fmt.Sprintf("%s%d", prefix, year)
}

// Clean returns a copy of t without the null rows.
func Clean(t *Yearly) *Yearly {
	rows := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.Null() {
			rows = append(rows, r)
		}
	}
	return &Yearly{Column: t.Column, Rows: rows}
}

// Rename returns t with its measurement column renamed. Rows are shared.
func Rename(t *Yearly, name string) *Yearly {
	return &Yearly{Column: name, Rows: t.Rows}
}

// Combined is the outer join of several yearly tables on the grid cell
// key. Keys are kept in first-appearance order until Sort is called.
type Combined struct {
	columns []string
	keys    []Key
	index   map[Key]int
	values  [][]float64
}

// NewCombined creates a combined table seeded with t.
func NewCombined(seed *Yearly) (*Combined, error) {
	c := &Combined{index: make(map[Key]int, len(seed.Rows))}
	if err := c.Merge(seed); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge outer-joins t into c. Cells of c missing from t get a null in the
// new column and cells of t missing from c are appended with nulls in
// every existing column.
func (c *Combined) Merge(t *Yearly) error {
	if col := slices.Index(c.columns, t.Column); col >= 0 {
		return c.compare(col, t)
	}

	seen := make(map[Key]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		if _, ok := seen[r.Key]; ok {
			return errors.Wrapf(ErrDuplicateKey, "column %s: lat=%v lon=%v", t.Column, r.Lat, r.Lon)
		}
		seen[r.Key] = struct{}{}
	}

	vals := make([]float64, len(c.keys), max(len(c.keys), len(t.Rows)))
	for i := range vals {
		vals[i] = math.NaN()
	}
	for _, r := range t.Rows {
		if i, ok := c.index[r.Key]; ok {
			vals[i] = r.Value
			continue
		}
		c.index[r.Key] = len(c.keys)
		c.keys = append(c.keys, r.Key)
		for j := range c.values {
			c.values[j] = append(c.values[j], math.NaN())
		}
		vals = append(vals, r.Value)
	}
	c.columns = append(c.columns, t.Column)
	c.values = append(c.values, vals)
	return nil
}

// compare accepts t only when it repeats the contents of column col.
func (c *Combined) compare(col int, t *Yearly) error {
	present := 0
	for _, v := range c.values[col] {
		if !math.IsNaN(v) {
			present++
		}
	}
	if present != len(t.Rows) {
		return errors.Wrapf(ErrColumnConflict, "column %s: %d cells merged, %d offered", t.Column, present, len(t.Rows))
	}
	for _, r := range t.Rows {
		i, ok := c.index[r.Key]
		if !ok || !sameValue(c.values[col][i], r.Value) {
			return errors.Wrapf(ErrColumnConflict, "column %s: lat=%v lon=%v", t.Column, r.Lat, r.Lon)
		}
	}
	return nil
}

func sameValue(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// Sort orders the cells by latitude, then longitude, both ascending.
func (c *Combined) Sort() {
	perm := make([]int, len(c.keys))
	for i := range perm {
		perm[i] = i
	}
	slices.SortFunc(perm, func(a, b int) int {
		ka, kb := c.keys[a], c.keys[b]
		if n := cmp.Compare(ka.Lat, kb.Lat); n != 0 {
			return n
		}
		return cmp.Compare(ka.Lon, kb.Lon)
	})

	keys := make([]Key, len(perm))
	for i, p := range perm {
		keys[i] = c.keys[p]
		c.index[keys[i]] = i
	}
	c.keys = keys
	for j, col := range c.values {
		sorted := make([]float64, len(perm))
		for i, p := range perm {
			sorted[i] = col[p]
		}
		c.values[j] = sorted
	}
}

// Len returns the number of grid cells.
func (c *Combined) Len() int {
	return len(c.keys)
}

// Columns returns the measurement column names in merge order.
func (c *Combined) Columns() []string {
	return slices.Clone(c.columns)
}

// Key returns the key of the i-th cell.
func (c *Combined) Key(i int) Key {
	return c.keys[i]
}

// Value returns the value of column col for the i-th cell. NaN is null.
func (c *Combined) Value(col, i int) float64 {
	return c.values[col][i]
}

// Get looks up a cell by key and column name.
func (c *Combined) Get(k Key, column string) (float64, bool) {
	i, ok := c.index[k]
	if !ok {
		return 0, false
	}
	col := slices.Index(c.columns, column)
	if col < 0 {
		return 0, false
	}
	return c.values[col][i], true
}
