package raster

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/pkg/errors"

	"github.com/rtm0/pmgrid/internal/table"
)

// Scanner retrieves grid cells from a PM2.5 raster one latitude row at a
// time.
type Scanner struct {
	nc      api.Group
	varName string
	la      []float64
	lo      []float64
	vg      api.VarGetter
	grid    [][]float64
	f32     bool
	missing []float64
	pos     int
	cells   []table.Row
	err     error
}

// Open creates a new scanner over the varName variable of a netCDF file.
// The variable must be laid out as [lat][lon], optionally preceded by a
// singleton dimension such as time.
func Open(filePath, latName, lonName, varName string) (*Scanner, error) {
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", filePath)
	}
	s, err := newScanner(nc, latName, lonName, varName)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, filePath)
	}
	return s, nil
}

func newScanner(nc api.Group, latName, lonName, varName string) (*Scanner, error) {
	s := &Scanner{nc: nc, varName: varName}
	var err error
	s.la, err = coordValues(nc, latName)
	if err != nil {
		return nil, err
	}
	s.lo, err = coordValues(nc, lonName)
	if err != nil {
		return nil, err
	}
	s.vg, err = nc.GetVarGetter(varName)
	if err != nil {
		return nil, errors.Wrapf(err, "variable %q", varName)
	}

	dims := s.vg.Dimensions()
	switch {
	case len(dims) == 2 && s.vg.Len() == int64(len(s.la)):
	case len(dims) == 3 && s.vg.Len() == 1:
		v, err := s.vg.Values()
		if err != nil {
			return nil, errors.Wrapf(err, "variable %q", varName)
		}
		s.grid, s.f32, err = singleton(v)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %q", varName)
		}
		if len(s.grid) != len(s.la) {
			return nil, fmt.Errorf("variable %q has %d rows, want %d", varName, len(s.grid), len(s.la))
		}
	default:
		return nil, fmt.Errorf("variable %q has dimensions %v and length %d, want [%s][%s]",
			varName, dims, s.vg.Len(), latName, lonName)
	}
	s.missing = missingValues(s.vg.Attributes())
	return s, nil
}

func coordValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, errors.Wrapf(err, "coordinate %q", name)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, errors.Wrapf(err, "coordinate %q", name)
	}
	switch v := v.(type) {
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = widen(f)
		}
		return out, nil
	case []float64:
		return v, nil
	}
	return nil, fmt.Errorf("coordinate %q has unsupported type %T", name, v)
}

// missingValues collects the _FillValue and missing_value attributes.
func missingValues(attrs api.AttributeMap) []float64 {
	if attrs == nil {
		return nil
	}
	var out []float64
	for _, name := range []string{"_FillValue", "missing_value"} {
		v, ok := attrs.Get(name)
		if !ok {
			continue
		}
		switch v := v.(type) {
		case float32:
			out = append(out, float64(v))
		case float64:
			out = append(out, v)
		case []float32:
			for _, f := range v {
				out = append(out, float64(f))
			}
		case []float64:
			out = append(out, v...)
		}
	}
	return out
}

func singleton(v any) ([][]float64, bool, error) {
	switch v := v.(type) {
	case [][][]float32:
		grid := make([][]float64, len(v[0]))
		for i, r := range v[0] {
			grid[i] = make([]float64, len(r))
			for j, f := range r {
				grid[i][j] = float64(f)
			}
		}
		return grid, true, nil
	case [][][]float64:
		return v[0], false, nil
	}
	return nil, false, fmt.Errorf("unsupported type %T", v)
}

// widen converts f to the float64 with the same shortest decimal form, so
// that a coordinate stored as 0.05 is not written as 0.05000000074505806.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}

// Close closes the scanner.
func (s *Scanner) Close() {
	s.nc.Close()
}

// Summary returns the summary information about the raster suitable for
// logging.
func (s *Scanner) Summary() []any {
	return []any{
		"variable", s.varName,
		"laCnt", len(s.la),
		"loCnt", len(s.lo),
		"totalCellCnt", s.TotalCellCount(),
	}
}

// TotalCellCount returns the number of grid cells, land and ocean.
func (s *Scanner) TotalCellCount() int {
	return len(s.la) * len(s.lo)
}

// Scan reads all cells of the next latitude row.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= len(s.la) {
		return false
	}
	vals, isF32, err := s.row()
	if err == nil && len(vals) != len(s.lo) {
		err = fmt.Errorf("got %d cells, want %d", len(vals), len(s.lo))
	}
	if err != nil {
		s.err = errors.Wrapf(err, "variable %q row %d", s.varName, s.pos)
		return false
	}

	s.cells = make([]table.Row, len(s.lo))
	la := s.la[s.pos]
	for j, lo := range s.lo {
		v := vals[j]
		switch {
		case s.isMissing(v):
			v = math.NaN()
		case isF32:
			v = widen(float32(v))
		}
		s.cells[j] = table.Row{Key: table.Key{Lat: la, Lon: lo}, Value: v}
	}
	s.pos++
	return true
}

// row returns the values of the current latitude row and whether they
// were stored as float32.
func (s *Scanner) row() ([]float64, bool, error) {
	if s.grid != nil {
		return s.grid[s.pos], s.f32, nil
	}
	begin := int64(s.pos)
	v, err := s.vg.GetSlice(begin, begin+1)
	if err != nil {
		return nil, false, err
	}
	switch v := v.(type) {
	case [][]float32:
		out := make([]float64, len(v[0]))
		for i, f := range v[0] {
			out[i] = float64(f)
		}
		return out, true, nil
	case [][]float64:
		return v[0], false, nil
	}
	return nil, false, fmt.Errorf("unsupported type %T", v)
}

func (s *Scanner) isMissing(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	for _, m := range s.missing {
		if v == m {
			return true
		}
	}
	return false
}

// Cells returns the cells that have been read by the last Scan() operation.
// The function transfers ownership of cells to the caller and the
// subsequent calls to this function without prior invocation of Scan()
// will return nil.
func (s *Scanner) Cells() []table.Row {
	cells := s.cells
	s.cells = nil
	return cells
}

// Err returns the first error encountered by Scan.
func (s *Scanner) Err() error {
	return s.err
}

// Load reads the whole varName variable of a netCDF file into a yearly
// table named after the variable. Missing cells are kept as nulls.
func Load(logger *slog.Logger, filePath, latName, lonName, varName string) (*table.Yearly, error) {
	s, err := Open(filePath, latName, lonName, varName)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	logger.Debug("raster summary", append([]any{"path", filePath}, s.Summary()...)...)

	t := &table.Yearly{Column: varName, Rows: make([]table.Row, 0, s.TotalCellCount())}
	for s.Scan() {
		t.Rows = append(t.Rows, s.Cells()...)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, filePath)
	}
	return t, nil
}
