package csvout

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/rtm0/pmgrid/internal/table"
)

// Header returns the CSV header for c. The leading row index column is
// unnamed, matching the files the downstream Stata step already reads.
func Header(c *table.Combined) []string {
	return append([]string{"", "lat", "lon"}, c.Columns()...)
}

// Write writes c as CSV: one row per grid cell, prefixed with its row
// index. Null values are written as empty fields.
func Write(w io.Writer, c *table.Combined) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(c)); err != nil {
		return err
	}
	ncols := len(c.Columns())
	rec := make([]string, 3+ncols)
	for i := range c.Len() {
		k := c.Key(i)
		rec[0] = strconv.Itoa(i)
		rec[1] = formatFloat(k.Lat)
		rec[2] = formatFloat(k.Lon)
		for j := range ncols {
			rec[3+j] = formatFloat(c.Value(j, i))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteFile writes c to path. The table is written to a temporary file in
// the same directory first, so nothing appears at path unless the whole
// table was written.
func WriteFile(path string, c *table.Combined) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	tmp := f.Name()
	if err := Write(f, c); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
