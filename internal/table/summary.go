package table

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the contents of a yearly table.
type Summary struct {
	Cells int
	Nulls int
	Mean  float64
	Min   float64
	Max   float64
}

// Summarize computes the cell counts and value statistics of t. The
// statistics are NaN when t holds no measurement.
func Summarize(t *Yearly) Summary {
	vals := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.Null() {
			vals = append(vals, r.Value)
		}
	}
	s := Summary{
		Cells: len(t.Rows),
		Nulls: len(t.Rows) - len(vals),
		Mean:  math.NaN(),
		Min:   math.NaN(),
		Max:   math.NaN(),
	}
	if len(vals) == 0 {
		return s
	}
	s.Mean = stat.Mean(vals, nil)
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	return s
}

// Attrs returns the summary as slog key/value pairs.
func (s Summary) Attrs() []any {
	return []any{
		"cells", s.Cells,
		"nulls", s.Nulls,
		"mean", s.Mean,
		"min", s.Min,
		"max", s.Max,
	}
}
