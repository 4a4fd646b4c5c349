// Package pipeline combines yearly PM2.5 rasters into one wide table.
package pipeline

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/rtm0/pmgrid/internal/config"
	"github.com/rtm0/pmgrid/internal/csvout"
	"github.com/rtm0/pmgrid/internal/raster"
	"github.com/rtm0/pmgrid/internal/table"
)

// Loader reads the raster of one year.
type Loader interface {
	Load(year int) (*table.Yearly, error)
}

// NetCDFLoader loads yearly rasters from the netCDF files named by its
// configuration.
type NetCDFLoader struct {
	Logger *slog.Logger
	Config config.Config
}

// Load implements Loader.
func (l NetCDFLoader) Load(year int) (*table.Yearly, error) {
	return raster.Load(l.Logger, l.Config.InputPath(year), l.Config.LatName, l.Config.LonName, l.Config.SourceColumn)
}

// Accumulate folds the given years into a combined table. The first year
// seeds the table and every following year is loaded, stripped of its
// null cells, renamed to prefix<year> and outer-joined into it. The first
// failing year aborts the fold.
func Accumulate(logger *slog.Logger, loader Loader, years []int, prefix string) (*table.Combined, error) {
	if len(years) == 0 {
		return nil, errors.New("no years to combine")
	}

	var combined *table.Combined
	for i, year := range years {
		raw, err := loader.Load(year)
		if err != nil {
			return nil, errors.Wrapf(err, "year %d", year)
		}
		logger.Info("loaded raster", append([]any{"year", year}, table.Summarize(raw).Attrs()...)...)

		yearly := table.Rename(table.Clean(raw), table.ColumnName(prefix, year))
		if i == 0 {
			combined, err = table.NewCombined(yearly)
		} else {
			err = combined.Merge(yearly)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "year %d", year)
		}
		if i == 0 {
			logger.Info("dataset dimension for start year", "year", year, "rows", combined.Len(), "columns", len(combined.Columns()))
		}
	}
	return combined, nil
}

// Run combines the rasters described by cfg and writes the sorted result
// to cfg.OutputPath. Nothing is written if any year fails.
func Run(logger *slog.Logger, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	combined, err := Accumulate(logger, NetCDFLoader{Logger: logger, Config: cfg}, cfg.Years(), cfg.ColumnPrefix)
	if err != nil {
		return err
	}
	combined.Sort()
	if err := csvout.WriteFile(cfg.OutputPath, combined); err != nil {
		return err
	}
	logger.Info("wrote combined table", "path", cfg.OutputPath, "rows", combined.Len(), "columns", combined.Columns())
	return nil
}
