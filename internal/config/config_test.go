package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

func chtemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "parcels.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "all", cfg.Pipeline.Dataset)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.False(t, cfg.Pipeline.AllowSynthetic)
	assert.Equal(t, "address-index.json", cfg.Index.OutputPath)
	assert.Equal(t, "St. Louis", cfg.City.DefaultCity)
	assert.Equal(t, "63102", cfg.City.DefaultZip)
	assert.Equal(t, "St. Louis County", cfg.County.DefaultCity)
	assert.Equal(t, "63105", cfg.County.DefaultZip)
	assert.Equal(t, 0, cfg.City.EPSG)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/parcels
pipeline:
  dataset: 10k
  workers: 8
city:
  epsg: 2815
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/parcels", cfg.Store.DatabaseURL)
	assert.Equal(t, "10k", cfg.Pipeline.Dataset)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 2815, cfg.City.EPSG)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still fill the rest.
	assert.Equal(t, "63105", cfg.County.DefaultZip)
}

func TestLoadFromEnv(t *testing.T) {
	chtemp(t)
	t.Setenv("PARCEL_PIPELINE_DATASET", "1k")
	t.Setenv("PARCEL_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "1k", cfg.Pipeline.Dataset)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestRecordLimit(t *testing.T) {
	assert.Equal(t, 1000, PipelineConfig{Dataset: "1k"}.RecordLimit())
	assert.Equal(t, 10000, PipelineConfig{Dataset: "10K"}.RecordLimit())
	assert.Equal(t, 0, PipelineConfig{Dataset: "all"}.RecordLimit())
	assert.Equal(t, 0, PipelineConfig{}.RecordLimit())
}

func TestRegionLookup(t *testing.T) {
	cfg := &Config{
		City:   RegionConfig{DefaultZip: "63102"},
		County: RegionConfig{DefaultZip: "63105"},
	}
	assert.Equal(t, "63102", cfg.Region(parcel.RegionCity).DefaultZip)
	assert.Equal(t, "63105", cfg.Region(parcel.RegionCounty).DefaultZip)
}

func TestWriteDefault(t *testing.T) {
	dir := chtemp(t)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "PARCEL_")

	// The written file must load back with the defaults intact.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "63102", cfg.City.DefaultZip)

	// Writing over an existing file must fail rather than clobber.
	assert.Error(t, WriteDefault(path))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
