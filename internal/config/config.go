// Package config loads compliscope settings from an optional YAML file,
// COMPLISCOPE_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dshills/compliscope/internal/match"
	"github.com/dshills/compliscope/internal/render"
	"github.com/dshills/compliscope/internal/source"
)

// EnvPrefix is prepended to every environment override, e.g.
// COMPLISCOPE_SOURCE_LOCATION for source.location.
const EnvPrefix = "COMPLISCOPE"

// Config is the effective configuration.
type Config struct {
	Source   Source   `mapstructure:"source"`
	Taxonomy Taxonomy `mapstructure:"taxonomy"`
	Match    Match    `mapstructure:"match"`
	Report   Report   `mapstructure:"report"`
	Server   Server   `mapstructure:"server"`
}

type Source struct {
	Location string        `mapstructure:"location"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type Taxonomy struct {
	Path string `mapstructure:"path"`
}

type Match struct {
	Mode string `mapstructure:"mode"`
}

type Report struct {
	Owner        string `mapstructure:"owner"`
	HighDays     int    `mapstructure:"high_days"`
	StandardDays int    `mapstructure:"standard_days"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.location", "")
	v.SetDefault("source.cache_ttl", source.DefaultTTL)
	v.SetDefault("taxonomy.path", "")
	v.SetDefault("match.mode", string(match.ModeWord))
	v.SetDefault("report.owner", "")
	v.SetDefault("report.high_days", render.DefaultHighDays)
	v.SetDefault("report.standard_days", render.DefaultStandardDays)
	v.SetDefault("server.addr", ":8080")
}

// Load reads configuration. An explicit path must exist; with an empty path
// compliscope.yaml is looked up in the working directory and skipped when
// absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("compliscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := match.ParseMode(c.Match.Mode); err != nil {
		return fmt.Errorf("config match.mode: %w", err)
	}
	if c.Source.CacheTTL < 0 {
		return fmt.Errorf("config source.cache_ttl must not be negative, got %s", c.Source.CacheTTL)
	}
	if c.Report.HighDays <= 0 || c.Report.StandardDays <= 0 {
		return fmt.Errorf("config report deadlines must be positive, got high_days=%d standard_days=%d",
			c.Report.HighDays, c.Report.StandardDays)
	}
	return nil
}

// RenderOptions maps the report section onto renderer options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Owner:        c.Report.Owner,
		HighDays:     c.Report.HighDays,
		StandardDays: c.Report.StandardDays,
	}
}
