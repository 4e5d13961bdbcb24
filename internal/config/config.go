package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"deepboot/internal/export"
	"deepboot/internal/filter"
)

const (
	defaultSort        = "name"
	defaultLogLevel    = "info"
	defaultScanTimeout = 2 * time.Minute

	envDefaultSort     = "DEEPBOOT_DEFAULT_SORT"
	envShowWhitelisted = "DEEPBOOT_SHOW_WHITELISTED"
	envDataDir         = "DEEPBOOT_DATA_DIR"
	envScanTimeout     = "DEEPBOOT_SCAN_TIMEOUT"
)

// Config holds the operator preferences.
type Config struct {
	// AutoBackup snapshots the collection when a session opens and the
	// targets before every destructive action.
	AutoBackup bool
	// ShowWhitelisted skips the whitelist gate when listing.
	ShowWhitelisted bool
	DefaultSort     string
	LogLevel        string
	// AutoExport writes a report after every scan when set to a format.
	AutoExport  string
	DataDir     string
	ScanTimeout time.Duration
}

// Default returns the built-in preferences.
func Default() Config {
	return Config{
		AutoBackup:  true,
		DefaultSort: defaultSort,
		LogLevel:    defaultLogLevel,
		DataDir:     DataDir(),
		ScanTimeout: defaultScanTimeout,
	}
}

// Load builds a Config from defaults, an optional YAML file and environment
// overrides. A missing file at the default location is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	fileCfg, err := loadFromFile(path)
	switch {
	case err == nil:
		fileCfg.apply(&cfg)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot interpret.
func (c Config) Validate() error {
	if _, err := filter.ParseSortKey(c.DefaultSort); err != nil {
		return fmt.Errorf("default_sort: %w", err)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.AutoExport != "" {
		if _, err := export.ParseFormat(c.AutoExport); err != nil {
			return fmt.Errorf("auto_export: %w", err)
		}
	}
	if c.ScanTimeout < 0 {
		return errors.New("scan_timeout must be >= 0")
	}
	return nil
}

// SortKey returns the parsed DefaultSort.
func (c Config) SortKey() filter.SortKey {
	k, _ := filter.ParseSortKey(c.DefaultSort)
	return k
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envDefaultSort); v != "" {
		if _, err := filter.ParseSortKey(v); err == nil {
			cfg.DefaultSort = v
		} else {
			log.Printf("invalid %s value %q: %v", envDefaultSort, v, err)
		}
	}

	if v := os.Getenv(envShowWhitelisted); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ShowWhitelisted = b
		} else {
			log.Printf("invalid %s value %q: %v", envShowWhitelisted, v, err)
		}
	}

	if v := os.Getenv(envDataDir); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv(envScanTimeout); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur >= 0 {
			cfg.ScanTimeout = dur
		} else if err != nil {
			log.Printf("invalid %s value %q: %v", envScanTimeout, v, err)
		}
	}
}

// fileConfig is the YAML document. Pointers distinguish "absent" from a
// zero value.
type fileConfig struct {
	AutoBackup      *bool   `yaml:"auto_backup,omitempty"`
	ShowWhitelisted *bool   `yaml:"show_whitelisted,omitempty"`
	DefaultSort     string  `yaml:"default_sort,omitempty"`
	LogLevel        string  `yaml:"log_level,omitempty"`
	AutoExport      *string `yaml:"auto_export,omitempty"`
	DataDir         string  `yaml:"data_dir,omitempty"`
	ScanTimeout     string  `yaml:"scan_timeout,omitempty"`

	scanTimeout time.Duration
}

func (f fileConfig) apply(cfg *Config) {
	if f.AutoBackup != nil {
		cfg.AutoBackup = *f.AutoBackup
	}
	if f.ShowWhitelisted != nil {
		cfg.ShowWhitelisted = *f.ShowWhitelisted
	}
	if f.DefaultSort != "" {
		cfg.DefaultSort = f.DefaultSort
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.AutoExport != nil {
		cfg.AutoExport = *f.AutoExport
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.ScanTimeout != "" {
		cfg.ScanTimeout = f.scanTimeout
	}
}

func loadFromFile(path string) (fileConfig, error) {
	var raw fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return raw, err
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return raw, err
	}

	if raw.ScanTimeout != "" {
		dur, err := time.ParseDuration(raw.ScanTimeout)
		if err != nil {
			return raw, fmt.Errorf("parse scan_timeout: %w", err)
		}
		if dur < 0 {
			return raw, errors.New("scan_timeout must be >= 0")
		}
		raw.scanTimeout = dur
	}
	return raw, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	autoBackup, showWhitelisted, autoExport := c.AutoBackup, c.ShowWhitelisted, c.AutoExport
	raw := fileConfig{
		AutoBackup:      &autoBackup,
		ShowWhitelisted: &showWhitelisted,
		DefaultSort:     c.DefaultSort,
		LogLevel:        c.LogLevel,
		AutoExport:      &autoExport,
		DataDir:         c.DataDir,
		ScanTimeout:     c.ScanTimeout.String(),
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
