// Package config loads tably's JSONC configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sugawarayuuta/sonnet"
	"github.com/tailscale/hujson"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".tably.json"

// Error variables for config loading.
var (
	ErrFileNotFound    = errors.New("config file not found")
	ErrFileRead        = errors.New("cannot read config file")
	ErrInvalid         = errors.New("invalid config file")
	ErrCapacityInvalid = errors.New("capacity must be >= 1")
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	Buckets            int    `json:"buckets"`
	ResettableCapacity int    `json:"resettable_capacity"`
	CacheCapacity      int    `json:"cache_capacity"`
	HistoryFile        string `json:"history_file,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd   string `json:"-"`
	HistoryFileAbs string `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project or explicit config if loaded, empty otherwise
}

// fileConfig is the on-disk shape. Pointers distinguish "absent" from an
// explicit zero so a file can't silently fall back to the default.
type fileConfig struct {
	Buckets            *int    `json:"buckets"`
	ResettableCapacity *int    `json:"resettable_capacity"`
	CacheCapacity      *int    `json:"cache_capacity"`
	HistoryFile        *string `json:"history_file"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Buckets:            1024,
		ResettableCapacity: 1024,
		CacheCapacity:      256,
	}
}

// Overrides holds values set on the command line. Zero means not set.
type Overrides struct {
	Buckets            int
	ResettableCapacity int
	CacheCapacity      int
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       Overrides         // command flags
	Env             map[string]string // environment variables
}

// globalPath returns $XDG_CONFIG_HOME/tably/config.json, falling back to
// ~/.config/tably/config.json. Empty if neither variable is set.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "tably", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "tably", "config.json")
	}

	return ""
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file (.tably.json, if it exists)
// 4. Explicit config file via ConfigPath (replaces the project file)
// 5. CLI overrides.
//
// Possible errors:
//   - [ErrFileNotFound]: an explicit config file does not exist
//   - [ErrFileRead]: an explicit config file cannot be read
//   - [ErrInvalid]: a config file is not valid JSONC or has wrong types
//   - [ErrCapacityInvalid]: a resolved capacity is < 1
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		global, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, global)
			cfg.Sources.Global = path
		}
	}

	projectPath := filepath.Join(workDir, FileName)
	mustExist := false

	if input.ConfigPath != "" {
		projectPath = input.ConfigPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}

		mustExist = true

		_, statErr := os.Stat(projectPath)
		if statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, input.ConfigPath)
		}
	}

	project, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = merge(cfg, project)
		cfg.Sources.Project = projectPath
	}

	cfg = applyOverrides(cfg, input.Overrides)

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	if cfg.HistoryFile != "" {
		cfg.HistoryFileAbs = cfg.HistoryFile
		if !filepath.IsAbs(cfg.HistoryFileAbs) {
			cfg.HistoryFileAbs = filepath.Join(workDir, cfg.HistoryFileAbs)
		}
	}

	return cfg, nil
}

// loadFile reads and parses one config file. Missing files are skipped
// unless mustExist is set.
func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return fileConfig{}, false, fmt.Errorf("%w: %s", ErrFileRead, path)
		}

		return fileConfig{}, false, nil
	}

	fc, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}

	return fc, true, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig

	err = sonnet.Unmarshal(standardized, &fc)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return fc, nil
}

func merge(base Config, overlay fileConfig) Config {
	if overlay.Buckets != nil {
		base.Buckets = *overlay.Buckets
	}

	if overlay.ResettableCapacity != nil {
		base.ResettableCapacity = *overlay.ResettableCapacity
	}

	if overlay.CacheCapacity != nil {
		base.CacheCapacity = *overlay.CacheCapacity
	}

	if overlay.HistoryFile != nil {
		base.HistoryFile = *overlay.HistoryFile
	}

	return base
}

func applyOverrides(cfg Config, o Overrides) Config {
	if o.Buckets != 0 {
		cfg.Buckets = o.Buckets
	}

	if o.ResettableCapacity != 0 {
		cfg.ResettableCapacity = o.ResettableCapacity
	}

	if o.CacheCapacity != 0 {
		cfg.CacheCapacity = o.CacheCapacity
	}

	return cfg
}

func validate(cfg Config) error {
	checks := []struct {
		name  string
		value int
	}{
		{"buckets", cfg.Buckets},
		{"resettable_capacity", cfg.ResettableCapacity},
		{"cache_capacity", cfg.CacheCapacity},
	}

	for _, c := range checks {
		if c.value < 1 {
			return fmt.Errorf("%s=%d: %w", c.name, c.value, ErrCapacityInvalid)
		}
	}

	return nil
}
