// Package config holds the facet configuration: dataset column mapping,
// analysis defaults, discovery excludes, caching, and output preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/facet/pkg/analyzer/decomp"
	"github.com/panbanda/facet/pkg/schedule"
	gotoml "github.com/pelletier/go-toml"
)

// Config holds all configuration options for facet.
type Config struct {
	// Columns maps the well-known dataset columns onto actual header names.
	Columns ColumnsConfig `koanf:"columns" toml:"columns" comment:"Dataset column names."`

	// Analysis defaults applied when the CLI flags are absent.
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" comment:"Default analysis parameters."`

	// Exclude patterns for dataset discovery.
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" comment:"Dataset discovery exclusions."`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache" comment:"Result cache."`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" comment:"Output rendering."`
}

// ColumnsConfig names the schedule and annotation columns of the dataset.
type ColumnsConfig struct {
	Planned     string `koanf:"planned" toml:"planned" comment:"Planned date column."`
	Actual      string `koanf:"actual" toml:"actual" comment:"Actual date column."`
	Responsible string `koanf:"responsible" toml:"responsible" comment:"Person-in-charge column."`
	Reason      string `koanf:"reason" toml:"reason" comment:"Delay reason column."`
}

// Schedule returns the date columns in the form the analyzers take.
func (c ColumnsConfig) Schedule() schedule.Columns {
	return schedule.Columns{Planned: c.Planned, Actual: c.Actual}
}

// AnalysisConfig carries the analysis defaults.
type AnalysisConfig struct {
	Hierarchy   []string `koanf:"hierarchy" toml:"hierarchy" comment:"Default decomposition columns, outermost first."`
	Value       string   `koanf:"value" toml:"value" comment:"Default aggregation: count, sum:<column>, or avg:<column>."`
	Granularity string   `koanf:"granularity" toml:"granularity" comment:"Status granularity: day, week, or month."`
	Tooltips    []string `koanf:"tooltips" toml:"tooltips" comment:"Columns always summarized into tooltips."`
	TopBuckets  int      `koanf:"top_buckets" toml:"top_buckets" comment:"Planned-bucket distribution size."`
	TrendDays   int      `koanf:"trend_days" toml:"trend_days" comment:"History window for trend analysis."`
}

// ExcludeConfig defines dataset discovery exclusions.
type ExcludeConfig struct {
	Patterns      []string `koanf:"patterns" toml:"patterns" comment:"Base-name glob patterns to skip."`
	Dirs          []string `koanf:"dirs" toml:"dirs" comment:"Directory names to skip."`
	Gitignore     bool     `koanf:"gitignore" toml:"gitignore" comment:"Honor .gitignore during discovery."`
	MaxFileSizeMB int      `koanf:"max_file_size_mb" toml:"max_file_size_mb" comment:"Skip files larger than this."`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" comment:"Cache tree and KPI results."`
	Dir     string `koanf:"dir" toml:"dir" comment:"Cache directory; empty means the user cache dir."`
	TTL     int    `koanf:"ttl" toml:"ttl" comment:"Entry lifetime in hours; 0 means entries never expire."`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" comment:"Default format: text, json, markdown, toon, or csv."`
	Color  bool   `koanf:"color" toml:"color" comment:"Colorize text output."`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Columns: ColumnsConfig{
			Planned:     "Planned_OnAir_Date",
			Actual:      "Actual_OnAir_Date",
			Responsible: "PIC",
			Reason:      "Delay_Reason",
		},
		Analysis: AnalysisConfig{
			Hierarchy:   nil,
			Value:       "count",
			Granularity: "day",
			Tooltips:    nil,
			TopBuckets:  5,
			TrendDays:   90,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_sample.csv",
				"*.tmp.*",
			},
			Dirs: []string{
				".git",
				".facet",
				"node_modules",
				"vendor",
			},
			Gitignore:     true,
			MaxFileSizeMB: 256,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// configNames are the file names LoadOrDefault searches for, in order.
var configNames = []string{
	".facet.toml",
	".facet.yaml",
	".facet.yml",
	".facet.json",
}

// LoadOrDefault loads config from the working directory or the home
// directory, falling back to defaults when no file is found or readable.
func LoadOrDefault() *Config {
	searchDirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		searchDirs = append(searchDirs, home)
	}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if cfg, err := Load(path); err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}

// Validate checks the config for values the analyzers would reject. Errors
// name the offending key.
func (c *Config) Validate() error {
	if c.Columns.Planned == "" {
		return fmt.Errorf("config: columns.planned must not be empty")
	}
	if c.Columns.Actual == "" {
		return fmt.Errorf("config: columns.actual must not be empty")
	}
	if c.Analysis.Value != "" {
		if _, err := decomp.ParseValueRule(c.Analysis.Value); err != nil {
			return fmt.Errorf("config: analysis.value: %w", err)
		}
	}
	if c.Analysis.Granularity != "" {
		if _, err := schedule.ParseGranularity(c.Analysis.Granularity); err != nil {
			return fmt.Errorf("config: analysis.granularity: %w", err)
		}
	}
	if c.Analysis.TopBuckets < 1 {
		return fmt.Errorf("config: analysis.top_buckets must be at least 1")
	}
	if c.Analysis.TrendDays < 1 {
		return fmt.Errorf("config: analysis.trend_days must be at least 1")
	}
	if c.Exclude.MaxFileSizeMB < 1 {
		return fmt.Errorf("config: exclude.max_file_size_mb must be at least 1")
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "markdown", "toon", "csv":
	default:
		return fmt.Errorf("config: output.format %q not recognized (want text, json, markdown, toon, or csv)", c.Output.Format)
	}
	return nil
}

// Granularity returns the parsed default granularity.
func (c *Config) Granularity() schedule.Granularity {
	g, err := schedule.ParseGranularity(c.Analysis.Granularity)
	if err != nil {
		return schedule.Day
	}
	return g
}

// MaxFileSize returns the discovery size limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Exclude.MaxFileSizeMB) * 1024 * 1024
}

// EncodeTOML renders the config as commented TOML, used by config init.
func (c *Config) EncodeTOML() ([]byte, error) {
	return gotoml.Marshal(c)
}

// ShouldExclude checks if a discovered path is excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
