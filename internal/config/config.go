// Package config loads poxc settings from config.yaml and POXC_* environment
// variables, and installs the global zap logger.
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
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Assay  AssayConfig  `yaml:"assay" mapstructure:"assay"`
	Review ReviewConfig `yaml:"review" mapstructure:"review"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run archive backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// BatchConfig configures plate-level parallelism.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// AssayConfig holds the plate-template label conventions.
type AssayConfig struct {
	BlankMarker    string `yaml:"blank_marker" mapstructure:"blank_marker"`
	StandardSuffix string `yaml:"standard_suffix" mapstructure:"standard_suffix"`
}

// ReviewConfig holds the thresholds that flag rows for human review.
type ReviewConfig struct {
	MinRSquared  float64 `yaml:"min_r_squared" mapstructure:"min_r_squared"`
	MaxCVPercent float64 `yaml:"max_cv_percent" mapstructure:"max_cv_percent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("POXC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "poxc.db")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("assay.blank_marker", "water")
	v.SetDefault("assay.standard_suffix", "uM")
	v.SetDefault("review.min_r_squared", 0.99)
	v.SetDefault("review.max_cv_percent", 10.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Assay.BlankMarker) == "" {
		problems = append(problems, "assay.blank_marker is empty")
	}
	if strings.TrimSpace(c.Assay.StandardSuffix) == "" {
		problems = append(problems, "assay.standard_suffix is empty")
	}
	if c.Batch.Concurrency < 1 {
		problems = append(problems, "batch.concurrency must be at least 1")
	}
	if c.Review.MinRSquared < 0 || c.Review.MinRSquared > 1 {
		problems = append(problems, "review.min_r_squared must be within [0, 1]")
	}
	if c.Review.MaxCVPercent <= 0 {
		problems = append(problems, "review.max_cv_percent must be positive")
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(problems, "; "))
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
