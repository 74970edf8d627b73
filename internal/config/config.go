// Package config loads playq settings from TOML files and the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "playq"

type Config struct {
	LibraryDB string `koanf:"library_db"` // empty means $XDG_DATA_HOME/playq/library.db
	StateDB   string `koanf:"state_db"`   // empty means $XDG_DATA_HOME/playq/state.db

	Log      LogConfig      `koanf:"log"`
	Playback PlaybackConfig `koanf:"playback"`
	Notify   NotifyConfig   `koanf:"notify"`
	MPRIS    MPRISConfig    `koanf:"mpris"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `koanf:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `koanf:"output" default:"stderr" validate:"oneof=stdout stderr file"`
	File   string `koanf:"file" validate:"required_if=Output file"`
}

// PlaybackConfig tunes the playback service.
type PlaybackConfig struct {
	Autoplay           bool `koanf:"autoplay" default:"true"`
	RestartThresholdMs int  `koanf:"restart_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	HistorySize        int  `koanf:"history_size" default:"50" validate:"gte=1,lte=1000"`
	SaveDebounceMs     int  `koanf:"save_debounce_ms" default:"500" validate:"gte=0,lte=10000"`
}

// NotifyConfig controls desktop notifications on track changes.
type NotifyConfig struct {
	Enabled bool `koanf:"enabled" default:"true"`
}

// MPRISConfig controls the D-Bus media player interface.
type MPRISConfig struct {
	Enabled bool `koanf:"enabled" default:"true"`
}

// Load reads the config files in priority order. Missing files are skipped.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files, later ones overriding earlier ones.
// Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", path)
		}
	}

	// Defaults go in first so that explicit false/zero values in a file
	// survive the unmarshal.
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	cfg.overrideFromEnv()

	cfg.LibraryDB = expandPath(cfg.LibraryDB)
	cfg.StateDB = expandPath(cfg.StateDB)
	cfg.Log.File = expandPath(cfg.Log.File)
	if cfg.LibraryDB == "" {
		cfg.LibraryDB = filepath.Join(xdg.DataHome, appName, "library.db")
	}
	if cfg.StateDB == "" {
		cfg.StateDB = filepath.Join(xdg.DataHome, appName, "state.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return cfg, nil
}

// overrideFromEnv applies PLAYQ_* variables over file values.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYQ_LIBRARY_DB"); v != "" {
		c.LibraryDB = v
	}
	if v := os.Getenv("PLAYQ_STATE_DB"); v != "" {
		c.StateDB = v
	}
	if v := os.Getenv("PLAYQ_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/playq/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// RestartThreshold is how far into a track "previous" restarts it instead.
func (c *Config) RestartThreshold() time.Duration {
	return time.Duration(c.Playback.RestartThresholdMs) * time.Millisecond
}

// SaveDebounce is the delay before a queue change is written to disk.
func (c *Config) SaveDebounce() time.Duration {
	return time.Duration(c.Playback.SaveDebounceMs) * time.Millisecond
}
