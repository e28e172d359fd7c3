package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Inputs  InputConfig   `yaml:"inputs" mapstructure:"inputs"`
	Tier    TierConfig    `yaml:"tier" mapstructure:"tier"`
	Hotspot HotspotConfig `yaml:"hotspot" mapstructure:"hotspot"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig holds the paths of the four source CSV files.
type InputConfig struct {
	CrimePath      string `yaml:"crime_path" mapstructure:"crime_path"`
	UnfitPath      string `yaml:"unfit_path" mapstructure:"unfit_path"`
	VacantPath     string `yaml:"vacant_path" mapstructure:"vacant_path"`
	ViolationsPath string `yaml:"violations_path" mapstructure:"violations_path"`
}

// TierConfig optionally overrides the built-in severity keyword lists. Empty
// lists fall back to the defaults.
type TierConfig struct {
	Exclude            []string `yaml:"exclude" mapstructure:"exclude"`
	Tier1              []string `yaml:"tier1" mapstructure:"tier1"`
	Tier2              []string `yaml:"tier2" mapstructure:"tier2"`
	Tier3              []string `yaml:"tier3" mapstructure:"tier3"`
	KeepComplaintTypes []string `yaml:"keep_complaint_types" mapstructure:"keep_complaint_types"`
}

// HotspotConfig holds the classifier knobs.
type HotspotConfig struct {
	NumTrees         int     `yaml:"num_trees" mapstructure:"num_trees"`
	MaxDepth         int     `yaml:"max_depth" mapstructure:"max_depth"`
	MinLeaf          int     `yaml:"min_leaf" mapstructure:"min_leaf"`
	Seed             int64   `yaml:"seed" mapstructure:"seed"`
	TopImportances   int     `yaml:"top_importances" mapstructure:"top_importances"`
	GridCellSize     float64 `yaml:"grid_cell_size" mapstructure:"grid_cell_size"`
	ClusterThreshold int     `yaml:"cluster_threshold" mapstructure:"cluster_threshold"`
	TopCells         int     `yaml:"top_cells" mapstructure:"top_cells"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	// Path receives the JSON result; empty means stdout.
	Path   string `yaml:"path" mapstructure:"path"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DECAYSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("inputs.crime_path", "Crime_Data.csv")
	v.SetDefault("inputs.unfit_path", "Unfit_Properties.csv")
	v.SetDefault("inputs.vacant_path", "Vacant_Properties.csv")
	v.SetDefault("inputs.violations_path", "Code_Violations.csv")
	v.SetDefault("hotspot.num_trees", 100)
	v.SetDefault("hotspot.max_depth", 10)
	v.SetDefault("hotspot.min_leaf", 5)
	v.SetDefault("hotspot.seed", 42)
	v.SetDefault("hotspot.top_importances", 10)
	v.SetDefault("hotspot.grid_cell_size", 0.005)
	v.SetDefault("hotspot.cluster_threshold", 5)
	v.SetDefault("hotspot.top_cells", 10)
	v.SetDefault("output.pretty", true)

	// Read config file (optional)
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

// Validate checks value ranges before a run starts.
func (c *Config) Validate() error {
	var problems []string
	if c.Hotspot.NumTrees < 1 || c.Hotspot.NumTrees > 1000 {
		problems = append(problems, "hotspot.num_trees must be between 1 and 1000")
	}
	if c.Hotspot.MaxDepth < 1 {
		problems = append(problems, "hotspot.max_depth must be >= 1")
	}
	if c.Hotspot.MinLeaf < 1 {
		problems = append(problems, "hotspot.min_leaf must be >= 1")
	}
	if c.Hotspot.GridCellSize <= 0 {
		problems = append(problems, "hotspot.grid_cell_size must be > 0")
	}
	if c.Hotspot.ClusterThreshold < 1 {
		problems = append(problems, "hotspot.cluster_threshold must be >= 1")
	}
	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
