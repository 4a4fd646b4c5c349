package raster

import (
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/pmgrid/internal/table"
)

type ncVar struct {
	name  string
	vals  any
	dims  []string
	attrs map[string]any
}

func writeNC(t *testing.T, vars ...ncVar) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pm.nc")
	cw, err := cdf.OpenWriter(path)
	require.NoError(t, err)
	for _, v := range vars {
		keys := make([]string, 0, len(v.attrs))
		for k := range v.attrs {
			keys = append(keys, k)
		}
		attrs, err := util.NewOrderedMap(keys, v.attrs)
		require.NoError(t, err)
		require.NoError(t, cw.AddVar(v.name, api.Variable{
			Values:     v.vals,
			Dimensions: v.dims,
			Attributes: attrs,
		}))
	}
	require.NoError(t, cw.Close())
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func coords(lat, lon any) []ncVar {
	return []ncVar{
		{name: "lat", vals: lat, dims: []string{"lat"}},
		{name: "lon", vals: lon, dims: []string{"lon"}},
	}
}

func TestLoad(t *testing.T) {
	nan := float32(math.NaN())
	path := writeNC(t, append(coords([]float32{10.05, 10.15}, []float32{-0.05, 0.05, 0.15}),
		ncVar{
			name: "GWRPM25",
			vals: [][]float32{{1.5, nan, 2.25}, {nan, 3, 4.5}},
			dims: []string{"lat", "lon"},
		})...)

	y, err := Load(discard(), path, "lat", "lon", "GWRPM25")
	require.NoError(t, err)
	assert.Equal(t, "GWRPM25", y.Column)
	require.Len(t, y.Rows, 6)

	assert.Equal(t, table.Row{Key: table.Key{Lat: 10.05, Lon: -0.05}, Value: 1.5}, y.Rows[0])
	assert.Equal(t, table.Key{Lat: 10.05, Lon: 0.05}, y.Rows[1].Key)
	assert.True(t, y.Rows[1].Null())
	assert.Equal(t, table.Row{Key: table.Key{Lat: 10.15, Lon: 0.15}, Value: 4.5}, y.Rows[5])
}

func TestLoadFillValue(t *testing.T) {
	path := writeNC(t, append(coords([]float64{0, 0.1}, []float64{0}),
		ncVar{
			name:  "PM25",
			vals:  [][]float64{{-999}, {12.5}},
			dims:  []string{"lat", "lon"},
			attrs: map[string]any{"_FillValue": float64(-999)},
		})...)

	y, err := Load(discard(), path, "lat", "lon", "PM25")
	require.NoError(t, err)
	require.Len(t, y.Rows, 2)
	assert.True(t, y.Rows[0].Null())
	assert.Equal(t, 12.5, y.Rows[1].Value)

	cleaned := table.Clean(y)
	assert.Equal(t, []table.Row{{Key: table.Key{Lat: 0.1, Lon: 0}, Value: 12.5}}, cleaned.Rows)
}

func TestLoadSingletonTime(t *testing.T) {
	path := writeNC(t, append(coords([]float32{1, 2}, []float32{3}),
		ncVar{
			name: "GWRPM25",
			vals: [][][]float32{{{7}, {8}}},
			dims: []string{"time", "lat", "lon"},
		})...)

	y, err := Load(discard(), path, "lat", "lon", "GWRPM25")
	require.NoError(t, err)
	assert.Equal(t, []table.Row{
		{Key: table.Key{Lat: 1, Lon: 3}, Value: 7},
		{Key: table.Key{Lat: 2, Lon: 3}, Value: 8},
	}, y.Rows)
}

func TestLoadMissingVariable(t *testing.T) {
	path := writeNC(t, append(coords([]float32{1}, []float32{1}),
		ncVar{name: "PM25", vals: [][]float32{{1}}, dims: []string{"lat", "lon"}})...)

	_, err := Load(discard(), path, "lat", "lon", "GWRPM25")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"GWRPM25"`)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(discard(), filepath.Join(t.TempDir(), "nope.nc"), "lat", "lon", "GWRPM25")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.nc")
}

func TestScannerRows(t *testing.T) {
	path := writeNC(t, append(coords([]float32{1, 2, 3}, []float32{4, 5}),
		ncVar{name: "GWRPM25", vals: [][]float32{{1, 2}, {3, 4}, {5, 6}}, dims: []string{"lat", "lon"}})...)

	s, err := Open(path, "lat", "lon", "GWRPM25")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 6, s.TotalCellCount())
	assert.Equal(t, []any{"variable", "GWRPM25", "laCnt", 3, "loCnt", 2, "totalCellCnt", 6}, s.Summary())

	rows := 0
	for s.Scan() {
		cells := s.Cells()
		require.Len(t, cells, 2)
		assert.Nil(t, s.Cells())
		rows++
	}
	require.NoError(t, s.Err())
	assert.Equal(t, 3, rows)
}

func TestWiden(t *testing.T) {
	assert.Equal(t, 0.05, widen(0.05))
	assert.Equal(t, -179.95, widen(-179.95))
	assert.True(t, math.IsNaN(widen(float32(math.NaN()))))
}
