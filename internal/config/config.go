// Package config loads application configuration from a yaml file and
// PARCEL_-prefixed environment variables, with sane defaults for the
// St. Louis datasets.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	City     RegionConfig   `yaml:"city" mapstructure:"city"`
	County   RegionConfig   `yaml:"county" mapstructure:"county"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Index    IndexConfig    `yaml:"index" mapstructure:"index"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RegionConfig points at one region's source files and fallbacks.
type RegionConfig struct {
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
	CSVPath       string `yaml:"csv_path" mapstructure:"csv_path"`
	DefaultCity   string `yaml:"default_city" mapstructure:"default_city"`
	DefaultZip    string `yaml:"default_zip" mapstructure:"default_zip"`
	// EPSG pins the source CRS; zero lets the resolver decide.
	EPSG int `yaml:"epsg" mapstructure:"epsg"`
}

// PipelineConfig configures ingest behavior.
type PipelineConfig struct {
	// Dataset selects how much to process: "1k", "10k", or "all".
	Dataset string `yaml:"dataset" mapstructure:"dataset"`
	Workers int    `yaml:"workers" mapstructure:"workers"`
	// DropCategories overrides which anomaly categories drop rows.
	DropCategories []string `yaml:"drop_categories" mapstructure:"drop_categories"`
	KeepAnomalies  bool     `yaml:"keep_anomalies" mapstructure:"keep_anomalies"`
	// AllowSynthetic lets the ingest run on generated fixture data when
	// the source shapefiles are absent. Never enabled by default.
	AllowSynthetic bool `yaml:"allow_synthetic" mapstructure:"allow_synthetic"`
}

// IndexConfig configures the ingest output artifacts: the address
// lookup index, the full record dump, and the parcel geometry map.
type IndexConfig struct {
	OutputPath   string `yaml:"output_path" mapstructure:"output_path"`
	RecordsPath  string `yaml:"records_path" mapstructure:"records_path"`
	GeometryPath string `yaml:"geometry_path" mapstructure:"geometry_path"`
}

// ServerConfig configures the lookup server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Region returns the config block for a region.
func (c *Config) Region(r parcel.Region) RegionConfig {
	if r == parcel.RegionCounty {
		return c.County
	}
	return c.City
}

// RecordLimit translates the dataset selection into a row cap per
// region. Zero means no cap.
func (p PipelineConfig) RecordLimit() int {
	switch strings.ToLower(p.Dataset) {
	case "1k":
		return 1000
	case "10k":
		return 10000
	default:
		return 0
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// WriteDefault writes the default configuration to path so a new
// deployment has a file to edit. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	var cfg Config
	if err := newViper().Unmarshal(&cfg); err != nil {
		return eris.Wrap(err, "config: defaults")
	}
	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}

	header := "# parcel-pipeline configuration.\n# Every key can be overridden with a PARCEL_-prefixed environment\n# variable, e.g. PARCEL_PIPELINE_DATASET=10k.\n"
	if err := os.WriteFile(path, append([]byte(header), body...), 0o644); err != nil {
		return eris.Wrapf(err, "config: write %s", path)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARCEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "parcels.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("pipeline.dataset", "all")
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.keep_anomalies", false)
	v.SetDefault("pipeline.allow_synthetic", false)
	v.SetDefault("index.output_path", "address-index.json")
	v.SetDefault("index.records_path", "parcel-records.json")
	v.SetDefault("index.geometry_path", "parcel-geometry.json")
	v.SetDefault("city.shapefile_path", "data/saint_louis_city/shapefiles/prcl.shp")
	v.SetDefault("city.csv_path", "data/saint_louis_city/shapefiles/parcels-basic-info.csv")
	v.SetDefault("city.default_city", "St. Louis")
	v.SetDefault("city.default_zip", "63102")
	v.SetDefault("county.shapefile_path", "data/saint_louis_county/shapefiles/Parcels_Current.shp")
	v.SetDefault("county.default_city", "St. Louis County")
	v.SetDefault("county.default_zip", "63105")

	return v
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
