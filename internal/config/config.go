// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/xonecas/cffind/internal/highlight"
	"github.com/xonecas/cffind/internal/rank"
	"github.com/xonecas/cffind/internal/score"
	"github.com/xonecas/cffind/internal/treesitter"
)

// Colour modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// EnvConfig names the environment variable holding a config file path.
const EnvConfig = "CFFIND_CONFIG"

// Config is the root configuration structure.
type Config struct {
	Limit      int         `toml:"limit"`
	Metric     string      `toml:"metric"`
	Extensions []string    `toml:"extensions"`
	Exclude    []string    `toml:"exclude"`
	Jobs       int         `toml:"jobs"` // 0 means one loader per CPU
	Cache      CacheConfig `toml:"cache"`
	UI         UIConfig    `toml:"ui"`
	Log        LogConfig   `toml:"log"`
}

// CacheConfig holds extraction cache settings.
type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"` // defaults to cache.db in DataDir
	TTLHours int    `toml:"ttl_hours"`
}

// TTL returns the configured lifetime of cache entries, 24 hours if unset.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TTLHours) * time.Hour
}

// PathOrDefault returns the configured database path or ~/.config/cffind/cache.db.
func (c CacheConfig) PathOrDefault() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := EnsureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// UIConfig holds output settings.
type UIConfig struct {
	Color        string `toml:"color"`
	SyntaxTheme  string `toml:"syntax_theme"`
	ShowDistance bool   `toml:"show_distance"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Limit:      rank.DefaultLimit,
		Metric:     score.DefaultMetric,
		Extensions: append([]string(nil), treesitter.DefaultExtensions...),
		Cache:      CacheConfig{TTLHours: 24},
		UI:         UIConfig{Color: ColorAuto, SyntaxTheme: highlight.DefaultTheme},
		Log:        LogConfig{Level: zerolog.WarnLevel.String()},
	}
}

// Load reads configuration and applies environment variable overrides.
// An explicit path must exist. With an empty path $CFFIND_CONFIG is tried,
// then ~/.config/cffind/config.toml; if neither exists the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		if dir, err := DataDir(); err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if explicit {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
		} else if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Limit <= 0 {
		errs = append(errs, fmt.Errorf("limit=%d must be positive", c.Limit))
	}
	if _, err := score.LookupMetric(c.Metric); err != nil {
		errs = append(errs, fmt.Errorf("metric: %w", err))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs=%d must not be negative", c.Jobs))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("extensions: at least one extension is required"))
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("extensions: %q must start with '.'", ext))
		}
	}
	switch c.UI.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("ui.color=%q must be one of auto, always, never", c.UI.Color))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level=%q is invalid", c.Log.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// LogLevel returns the parsed log level, warn if unparsable.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return lvl
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"CFFIND_LIMIT", func(v string) {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("CFFIND_LIMIT=%q is not a number", v))
				return
			}
			cfg.Limit = n
		}},
		{"CFFIND_METRIC", func(v string) { cfg.Metric = v }},
		{"CFFIND_COLOR", func(v string) { cfg.UI.Color = v }},
		{"CFFIND_LOG_LEVEL", func(v string) { cfg.Log.Level = v }},
	} {
		if v := os.Getenv(setter.env); v != "" {
			setter.apply(v)
		}
	}
	return errors.Join(errs...)
}

// DataDir returns the path to the cffind data directory (~/.config/cffind).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cffind"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
