// Package config merges flags, environment and an optional config file into
// the cachestat configuration.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/idelchi/cachestat/internal/cachestat"
	"github.com/idelchi/cachestat/internal/layout"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "CACHESTAT"

// Outputs lists the supported output formats.
//
//nolint:gochecknoglobals // Config constant
var Outputs = []string{"table", "json", "yaml"}

// LogFormats lists the supported log formats.
//
//nolint:gochecknoglobals // Config constant
var LogFormats = []string{"text", "json"}

// Config is the resolved configuration.
type Config struct {
	// Home is the package cache home.
	Home string `mapstructure:"home"`
	// Top is the number of summaries shown per category.
	Top int `mapstructure:"top"`
	// Mode is the aggregation mode.
	Mode string `mapstructure:"mode"`
	// Output is the output format.
	Output string `mapstructure:"output"`
	// Categories restricts the analyzed categories (empty = all).
	Categories []string `mapstructure:"categories"`
	// Jobs is the number of entries measured concurrently.
	Jobs int `mapstructure:"jobs"`
	// LogLevel is the logrus level name.
	LogLevel string `mapstructure:"log-level"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"log-format"`
	// LogFile is an optional rotated log file.
	LogFile string `mapstructure:"log-file"`
	// Debug forces debug logging and disables progress output.
	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("home", "")
	v.SetDefault("top", 20)
	v.SetDefault("mode", string(cachestat.ModeAdjacent))
	v.SetDefault("output", "table")
	v.SetDefault("categories", []string{})
	v.SetDefault("jobs", runtime.NumCPU())
	v.SetDefault("log-level", "warn")
	v.SetDefault("log-format", "text")
	v.SetDefault("log-file", "")
	v.SetDefault("debug", false)
}

// Load resolves the configuration from flags, CACHESTAT_* environment
// variables and, if path is set, a config file, in that order of precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.normalize()

	if cfg.Home == "" {
		home, err := layout.DefaultHome()
		if err != nil {
			return nil, err
		}

		cfg.Home = home
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	categories := make([]string, 0, len(c.Categories))

	for _, category := range c.Categories {
		// Values from the environment arrive as one comma separated string.
		for _, name := range strings.Split(category, ",") {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				categories = append(categories, name)
			}
		}
	}

	c.Categories = categories
}

// Validate checks every field and joins all violations.
func (c *Config) Validate() error {
	var errs []error

	if c.Top < 0 {
		errs = append(errs, newFieldError("top", "cannot be negative"))
	}

	if c.Jobs <= 0 {
		errs = append(errs, newFieldError("jobs", "must be positive"))
	}

	if _, err := cachestat.ParseMode(c.Mode); err != nil {
		errs = append(errs, newFieldError("mode", err.Error()))
	}

	if !slices.Contains(Outputs, c.Output) {
		errs = append(errs, newFieldError("output", fmt.Sprintf("must be one of %v", Outputs)))
	}

	if !slices.Contains(LogFormats, c.LogFormat) {
		errs = append(errs, newFieldError("log-format", fmt.Sprintf("must be one of %v", LogFormats)))
	}

	for _, name := range c.Categories {
		if !slices.Contains(layout.Names, name) {
			errs = append(errs, newFieldError("categories", fmt.Sprintf("unknown category %q, must be one of %v", name, layout.Names)))
		}
	}

	return errors.Join(errs...)
}

// AggregationMode returns the parsed aggregation mode.
func (c *Config) AggregationMode() cachestat.Mode {
	mode, err := cachestat.ParseMode(c.Mode)
	if err != nil {
		return cachestat.ModeAdjacent
	}

	return mode
}
