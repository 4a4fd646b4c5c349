package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmgrid.toml")
	require.NoError(t, os.WriteFile(path, []byte("StartYear = 2000\nEndYear = 2010\nSourceColumn = \"PM25\"\n"), 0o644))

	require.NoError(t, flag.Set("config", path))
	require.NoError(t, flag.Set("endYear", "2005"))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.StartYear)
	assert.Equal(t, 2005, cfg.EndYear)
	assert.Equal(t, "PM25", cfg.SourceColumn)
	assert.Equal(t, "pm", cfg.ColumnPrefix)
}
