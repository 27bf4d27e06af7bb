package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Fixtures FixturesConfig `mapstructure:"fixtures"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FixturesConfig locates the pre-computed data files. Each entry is a path
// relative to DataDir, an absolute path, or an http(s) URL.
type FixturesConfig struct {
	DataDir      string        `mapstructure:"data_dir"`
	ShiftSweep   string        `mapstructure:"shift_sweep"`
	CapitalSweep string        `mapstructure:"capital_sweep"`
	Cliff        string        `mapstructure:"cliff"`
	Catalog      string        `mapstructure:"catalog"`
	References   string        `mapstructure:"references"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// CatalogConfig holds catalog view configuration
type CatalogConfig struct {
	PriorityMarker string        `mapstructure:"priority_marker"`
	Delimiter      string        `mapstructure:"delimiter"`
	DisplayNames   []DisplayName `mapstructure:"display_names"`
}

// DisplayName renames a category for display. A list is used instead of a
// map because category names contain dots, which viper treats as key paths.
type DisplayName struct {
	Category string `mapstructure:"category"`
	Name     string `mapstructure:"name"`
}

// OutputConfig holds rendering and export configuration
type OutputConfig struct {
	Format          string `mapstructure:"format"`
	ExportDir       string `mapstructure:"export_dir"`
	FilePermissions string `mapstructure:"file_permissions"`
	DirPermissions  string `mapstructure:"dir_permissions"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("INCOMESHIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Fixture defaults
	v.SetDefault("fixtures.data_dir", "./data")
	v.SetDefault("fixtures.shift_sweep", "shift_sweep.json")
	v.SetDefault("fixtures.capital_sweep", "capital_sweep.json")
	v.SetDefault("fixtures.cliff", "cliff_data.json")
	v.SetDefault("fixtures.catalog", "uprating.csv")
	v.SetDefault("fixtures.references", "references.yaml")
	v.SetDefault("fixtures.fetch_timeout", "30s")

	// Catalog defaults
	v.SetDefault("catalog.priority_marker", "gov.irs")
	v.SetDefault("catalog.delimiter", "")

	// Output defaults
	v.SetDefault("output.format", "table")
	v.SetDefault("output.export_dir", "./exports")
	v.SetDefault("output.file_permissions", "0644")
	v.SetDefault("output.dir_permissions", "0755")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate fixtures config
	if c.Fixtures.DataDir == "" {
		return fmt.Errorf("fixtures.data_dir is required")
	}
	if c.Fixtures.FetchTimeout < 1*time.Second {
		return fmt.Errorf("fixtures.fetch_timeout must be at least 1 second")
	}

	// Validate catalog config
	if d := c.Catalog.Delimiter; d != "" && d != "," && d != "\t" && d != "tab" && d != ";" {
		return fmt.Errorf("catalog.delimiter must be one of: \",\", \";\", \"tab\"")
	}

	for i, d := range c.Catalog.DisplayNames {
		if d.Category == "" || d.Name == "" {
			return fmt.Errorf("catalog.display_names[%d] requires category and name", i)
		}
	}

	// Validate output config
	validFormats := map[string]bool{"table": true, "markdown": true, "md": true, "csv": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output.format must be one of: table, markdown (md), csv")
	}
	if c.Output.ExportDir == "" {
		return fmt.Errorf("output.export_dir is required")
	}
	if _, err := parseMode(c.Output.FilePermissions); err != nil {
		return fmt.Errorf("output.file_permissions: %w", err)
	}
	if _, err := parseMode(c.Output.DirPermissions); err != nil {
		return fmt.Errorf("output.dir_permissions: %w", err)
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Resolve turns a fixture reference into a loadable source: URLs and
// absolute paths are returned unchanged, anything else is joined to DataDir.
func (f FixturesConfig) Resolve(source string) string {
	if source == "" || filepath.IsAbs(source) ||
		strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source
	}
	return filepath.Join(f.DataDir, source)
}

// CatalogDelimiter returns the configured delimiter, or 0 to pick by extension.
func (c CatalogConfig) CatalogDelimiter() rune {
	switch c.Delimiter {
	case ",":
		return ','
	case ";":
		return ';'
	case "\t", "tab":
		return '\t'
	default:
		return 0
	}
}

// Renames returns the display names as a lookup table.
func (c CatalogConfig) Renames() map[string]string {
	out := make(map[string]string, len(c.DisplayNames))
	for _, d := range c.DisplayNames {
		out[d.Category] = d.Name
	}
	return out
}

// FileMode returns the permissions for exported files.
func (o OutputConfig) FileMode() os.FileMode {
	m, err := parseMode(o.FilePermissions)
	if err != nil {
		return 0o644
	}
	return m
}

// DirMode returns the permissions for created directories.
func (o OutputConfig) DirMode() os.FileMode {
	m, err := parseMode(o.DirPermissions)
	if err != nil {
		return 0o755
	}
	return m
}

func parseMode(s string) (os.FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal permissions %q", s)
	}
	if n > 0o777 {
		return 0, fmt.Errorf("permissions %q out of range", s)
	}
	return os.FileMode(n), nil
}
