package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// --- Configuration Structs ---

// EndpointConfig describes the remote DuckDB HTTP endpoint.
type EndpointConfig struct {
	// URL accepts both plain http(s) URLs and duckhttp connection strings.
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LogConfig controls the structured log output.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// OutputConfig controls how query results are rendered.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

type Config struct {
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
}

// --- Load Configuration ---

// LoadConfig reads the YAML configuration file at configPath. It uses its
// own viper instance so it never collides with flag and env bindings.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint.timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("output.format", "table")
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Endpoint.Validate(); err != nil {
		return fmt.Errorf("endpoint validation failed: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}
	return nil
}

func (ec *EndpointConfig) Validate() error {
	if err := validate(ec.URL != "", "endpoint url is required"); err != nil {
		return err
	}
	if err := validate(hasSupportedScheme(ec.URL),
		"endpoint url %q must use an http, https or duckhttp scheme", ec.URL); err != nil {
		return err
	}
	return validate(ec.Timeout >= 0, "timeout cannot be negative, got %s", ec.Timeout)
}

func hasSupportedScheme(url string) bool {
	for _, scheme := range []string{"http://", "https://", "duckhttp://", "duckdb+http://"} {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}

func (lc *LogConfig) Validate() error {
	switch lc.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unsupported log level %q", lc.Level)
	}
}

func (oc *OutputConfig) Validate() error {
	switch oc.Format {
	case "", "table", "json", "ndjson", "csv", "parquet", "arrow":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", oc.Format)
	}
}
