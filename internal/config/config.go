// Package config holds the settings of a pmgrid run.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// YearPlaceholder is replaced by the year in InputTemplate.
const YearPlaceholder = "{year}"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config describes which rasters are combined and where the result goes.
type Config struct {
	// StartYear and EndYear bound the processed years, both inclusive.
	StartYear int
	EndYear   int

	// InputTemplate is the path of a yearly raster with every {year}
	// replaced by the year. The file naming changes between data releases,
	// e.g. V5GL02 files are named ...Global.{year}.nc while V5GL03 files
	// carry a month range: ...Global.{year}01-{year}12.nc.
	InputTemplate string

	// OutputPath is where the combined CSV is written.
	OutputPath string

	// SourceColumn is the name of the measurement variable in the rasters.
	// It changes with the data release and must be checked before each run.
	SourceColumn string

	LatName string
	LonName string

	// ColumnPrefix is prepended to the year to name the output columns.
	ColumnPrefix string
}

// Default returns the configuration of the V5GL03 release.
func Default() Config {
	return Config{
		StartYear:     1998,
		EndYear:       2021,
		InputTemplate: "data/input/pollution/0.1x0.1/V5GL03.HybridPM25-NoDust-NoSeaSaltc_0p10.Global.{year}01-{year}12.nc",
		OutputPath:    "data/intermediate/pm_allyears.csv",
		SourceColumn:  "GWRPM25",
		LatName:       "lat",
		LonName:       "lon",
		ColumnPrefix:  "pm",
	}
}

// Load reads a TOML file on top of the defaults. Environment variables in
// the paths are expanded.
func Load(path string) (Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	c.ExpandEnv()
	return c, nil
}

// ExpandEnv expands environment variables in the path fields.
func (c *Config) ExpandEnv() {
	c.InputTemplate = os.ExpandEnv(c.InputTemplate)
	c.OutputPath = os.ExpandEnv(c.OutputPath)
}

// Validate checks that the configuration describes a runnable job.
func (c Config) Validate() error {
	switch {
	case c.StartYear > c.EndYear:
		return errors.Wrapf(ErrInvalid, "start year %d is after end year %d", c.StartYear, c.EndYear)
	case !strings.Contains(c.InputTemplate, YearPlaceholder):
		return errors.Wrapf(ErrInvalid, "input template %q has no %s placeholder", c.InputTemplate, YearPlaceholder)
	case c.OutputPath == "":
		return errors.Wrap(ErrInvalid, "empty output path")
	case c.SourceColumn == "":
		return errors.Wrap(ErrInvalid, "empty source column")
	case c.LatName == "" || c.LonName == "":
		return errors.Wrap(ErrInvalid, "empty coordinate name")
	case c.ColumnPrefix == "":
		return errors.Wrap(ErrInvalid, "empty column prefix")
	}
	return nil
}

// InputPath returns the raster path for year.
func (c Config) InputPath(year int) string {
	return strings.ReplaceAll(c.InputTemplate, YearPlaceholder, strconv.Itoa(year))
}

// Years returns StartYear through EndYear.
func (c Config) Years() []int {
	if c.StartYear > c.EndYear {
		return nil
	}
	years := make([]int, 0, c.EndYear-c.StartYear+1)
	for y := c.StartYear; y <= c.EndYear; y++ {
		years = append(years, y)
	}
	return years
}
