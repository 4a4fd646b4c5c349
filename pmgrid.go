package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/rtm0/pmgrid/internal/config"
	"github.com/rtm0/pmgrid/internal/pipeline"
)

var (
	configFile   = flag.String("config", "", "optional TOML file with the run configuration; flags set on the command line take precedence")
	startYear    = flag.Int("startYear", config.Default().StartYear, "first year to combine")
	endYear      = flag.Int("endYear", config.Default().EndYear, "last year to combine, inclusive")
	input        = flag.String("input", config.Default().InputTemplate, "path of a yearly NetCDF raster, with {year} in place of the year")
	output       = flag.String("output", config.Default().OutputPath, "path of the combined CSV file")
	column       = flag.String("column", config.Default().SourceColumn, "name of the PM2.5 variable in the rasters; check it against each data release")
	latName      = flag.String("lat", config.Default().LatName, "name of the latitude coordinate")
	lonName      = flag.String("lon", config.Default().LonName, "name of the longitude coordinate")
	columnPrefix = flag.String("prefix", config.Default().ColumnPrefix, "prefix of the yearly output columns")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Could not load configuration", "err", err)
		os.Exit(1)
	}
	logger.Info("pmgrid configuration", "startYear", cfg.StartYear, "endYear", cfg.EndYear,
		"input", cfg.InputTemplate, "output", cfg.OutputPath, "column", cfg.SourceColumn)

	if err := pipeline.Run(logger, cfg); err != nil {
		logger.Error("Could not combine rasters", "err", err)
		os.Exit(1)
	}
}

// loadConfig starts from the defaults or the config file and applies the
// flags that were set explicitly.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "startYear":
			cfg.StartYear = *startYear
		case "endYear":
			cfg.EndYear = *endYear
		case "input":
			cfg.InputTemplate = *input
		case "output":
			cfg.OutputPath = *output
		case "column":
			cfg.SourceColumn = *column
		case "lat":
			cfg.LatName = *latName
		case "lon":
			cfg.LonName = *lonName
		case "prefix":
			cfg.ColumnPrefix = *columnPrefix
		}
	})
	return cfg, nil
}
