// Package config loads the YAML configuration shared by the batch renderer,
// the viewer and the HTTP server. Every key can be overridden from the
// environment with the AML_PROGRESS_ prefix, e.g. AML_PROGRESS_DATA_URI.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/progress"
)

const EnvPrefix = "AML_PROGRESS"

type Config struct {
	Data   progress.SourceConfig `mapstructure:"data"`
	Chart  ChartConfig           `mapstructure:"chart"`
	Server ServerConfig          `mapstructure:"server"`
	Log    progress.LogConfig    `mapstructure:"log"`

	// path of the file that was read, empty when running on defaults
	File string `mapstructure:"-"`
}

// ChartConfig selects a preset and optionally overrides parts of it. Empty
// or zero fields keep the preset's value.
type ChartConfig struct {
	Preset            string                `mapstructure:"preset"`
	TickWeeks         int                   `mapstructure:"tick_weeks"`
	Trim              string                `mapstructure:"trim"`
	ActualDuration    time.Duration         `mapstructure:"actual_duration"`
	BenchmarkDuration time.Duration         `mapstructure:"benchmark_duration"`
	NoAnimation       bool                  `mapstructure:"no_animation"`
	Annotations       []string              `mapstructure:"annotations"`
	ReloadOnResize    *bool                 `mapstructure:"reload_on_resize"`
	Layout            chartgeom.LayoutRules `mapstructure:"layout"`
	Backend           string                `mapstructure:"backend"`
	Format            string                `mapstructure:"format"`
	Palette           string                `mapstructure:"palette"`
	Width             int                   `mapstructure:"width"`
	Height            int                   `mapstructure:"height"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type ServerConfig struct {
	Port           string          `mapstructure:"port"`
	Mode           string          `mapstructure:"mode"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	ReloadOnRender bool            `mapstructure:"reload_on_render"`
	WatchData      bool            `mapstructure:"watch_data"`
	WatchDebounce  time.Duration   `mapstructure:"watch_debounce"`
	ShutdownGrace  time.Duration   `mapstructure:"shutdown_grace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.uri", "")
	v.SetDefault("data.timeout", 30*time.Second)
	v.SetDefault("data.query", "")
	v.SetDefault("data.object.endpoint", "")
	v.SetDefault("data.object.access_key", "")
	v.SetDefault("data.object.secret_key", "")
	v.SetDefault("data.object.region", "")
	v.SetDefault("data.object.secure", true)

	v.SetDefault("chart.preset", "trimmed")
	v.SetDefault("chart.tick_weeks", 0)
	v.SetDefault("chart.trim", "")
	v.SetDefault("chart.no_animation", false)
	v.SetDefault("chart.backend", "canvas")
	v.SetDefault("chart.format", "png")
	v.SetDefault("chart.palette", "light")
	v.SetDefault("chart.width", 1280)
	v.SetDefault("chart.height", 800)
	r := chartgeom.DefaultLayoutRules
	v.SetDefault("chart.layout.width_fraction", r.WidthFraction)
	v.SetDefault("chart.layout.height_fraction", r.HeightFraction)
	v.SetDefault("chart.layout.top", r.Top)
	v.SetDefault("chart.layout.right", r.Right)
	v.SetDefault("chart.layout.bottom", r.Bottom)
	v.SetDefault("chart.layout.left", r.Left)
	v.SetDefault("chart.layout.min_width", r.MinWidth)
	v.SetDefault("chart.layout.min_height", r.MinHeight)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.rate_limit.per_second", 5.0)
	v.SetDefault("server.rate_limit.burst", 10)
	v.SetDefault("server.reload_on_render", false)
	v.SetDefault("server.watch_data", true)
	v.SetDefault("server.watch_debounce", 500*time.Millisecond)
	v.SetDefault("server.shutdown_grace", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

// LoadConfig reads config.yaml from the directory path, or path itself when
// it names a file. A missing config.yaml in a directory is not an error; the
// defaults and environment apply. An explicitly named file must exist.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json", ".toml":
		v.SetConfigFile(path)
	default:
		if path == "" {
			path = "."
		}
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// credentials commonly come from the deployment environment unprefixed
	_ = v.BindEnv("data.uri", EnvPrefix+"_DATA_URI", "PROGRESS_DATA_URI")
	_ = v.BindEnv("data.object.access_key", EnvPrefix+"_DATA_OBJECT_ACCESS_KEY", "MINIO_ACCESS_KEY")
	_ = v.BindEnv("data.object.secret_key", EnvPrefix+"_DATA_OBJECT_SECRET_KEY", "MINIO_SECRET_KEY")
	_ = v.BindEnv("data.object.endpoint", EnvPrefix+"_DATA_OBJECT_ENDPOINT", "MINIO_ENDPOINT")
	_ = v.BindEnv("server.mode", EnvPrefix+"_SERVER_MODE", "GIN_MODE")

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		progress.Debugf("no config file under %s, using defaults", path)
	} else {
		cfg.File = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would only fail later, at render time.
func (c *Config) Validate() error {
	if _, err := c.Chart.Options(); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if c.Server.RateLimit.PerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}

// Options resolves the preset and applies the overrides.
func (c ChartConfig) Options() (chartgeom.Options, error) {
	opts, err := chartgeom.Preset(c.Preset)
	if err != nil {
		return chartgeom.Options{}, err
	}
	if c.TickWeeks != 0 {
		opts.TickEvery = c.TickWeeks
	}
	if strings.TrimSpace(c.Trim) != "" {
		p, err := analysis.ParseTrimPolicy(c.Trim)
		if err != nil {
			return chartgeom.Options{}, err
		}
		opts.Trim = p
	}
	if c.ActualDuration > 0 {
		opts.ActualDuration = c.ActualDuration
	}
	if c.BenchmarkDuration > 0 {
		opts.BenchmarkDuration = c.BenchmarkDuration
	}
	if c.NoAnimation {
		opts.ActualDuration, opts.BenchmarkDuration = 0, 0
	}
	if len(c.Annotations) > 0 {
		a, err := chartgeom.ParseAnnotations(c.Annotations)
		if err != nil {
			return chartgeom.Options{}, err
		}
		opts.Annotations = a
	}
	if c.ReloadOnResize != nil {
		opts.ReloadOnResize = *c.ReloadOnResize
	}
	if c.Layout != (chartgeom.LayoutRules{}) {
		opts.Layout = c.Layout
	}
	return opts, opts.Validate()
}

// Viewport is the configured default render size.
func (c ChartConfig) Viewport() chartgeom.Viewport {
	return chartgeom.Viewport{Width: c.Width, Height: c.Height}
}
