// Package config loads CyberWeaver settings from defaults, an optional config
// file, CYBERWEAVER_* environment variables and bound CLI flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
)

// Keys understood by Load. Flags bound to these names override every other
// source.
const (
	KeyDataDir       = "data_dir"
	KeyDBFile        = "db_file"
	KeyBusyTimeoutMS = "busy_timeout_ms"
	KeyLogLevel      = "log.level"
)

const (
	// AppDirName is the directory created under the user config dir.
	AppDirName = "CyberWeaver"
	// DefaultDBFile is the database file name inside the data directory.
	DefaultDBFile = "cyberweaver.db"
	// DefaultBusyTimeoutMS matches the store's default.
	DefaultBusyTimeoutMS = 5000

	envPrefix  = "CYBERWEAVER"
	memoryPath = ":memory:"
)

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Config is the top-level CyberWeaver configuration.
type Config struct {
	DataDir       string    `mapstructure:"data_dir"`
	DBFile        string    `mapstructure:"db_file"`
	BusyTimeoutMS int       `mapstructure:"busy_timeout_ms"`
	Log           LogConfig `mapstructure:"log"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CYBERWEAVER_).
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so flags bound to it
// beforehand take part in resolution.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	// Defaults
	v.SetDefault(KeyDataDir, DefaultDataDir())
	v.SetDefault(KeyDBFile, DefaultDBFile)
	v.SetDefault(KeyBusyTimeoutMS, DefaultBusyTimeoutMS)
	v.SetDefault(KeyLogLevel, "info")

	// Environment
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrapf(err, errs.CodeConfigLoadFailure, "reading config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(err, errs.CodeConfigLoadFailure, "unmarshalling config")
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, errs.Wrap(errors.Join(problems...), errs.CodeConfigInvalidValue, "validating config")
	}

	return &cfg, nil
}

// DefaultDataDir is <user config dir>/CyberWeaver, or ./.cyberweaver when the
// platform reports no config dir.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return ".cyberweaver"
	}
	return filepath.Join(base, AppDirName)
}

// Validate checks the configuration for logical errors.
// It returns every problem found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var problems []error

	if strings.TrimSpace(c.DBFile) == "" {
		problems = append(problems, errs.New(errs.CodeConfigInvalidValue, "db_file must not be empty", errs.Field("key", KeyDBFile)))
	}
	if !c.InMemory() && !filepath.IsAbs(c.DBFile) && strings.TrimSpace(c.DataDir) == "" {
		problems = append(problems, errs.New(errs.CodeConfigInvalidValue, "data_dir must not be empty", errs.Field("key", KeyDataDir)))
	}
	if c.BusyTimeoutMS < 0 {
		problems = append(problems, errs.New(errs.CodeConfigInvalidValue,
			fmt.Sprintf("busy_timeout_ms must be >= 0, got %d", c.BusyTimeoutMS), errs.Field("key", KeyBusyTimeoutMS)))
	}
	if _, ok := validLogLevels[c.Log.Level]; !ok {
		problems = append(problems, errs.New(errs.CodeConfigInvalidValue,
			fmt.Sprintf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level), errs.Field("key", KeyLogLevel)))
	}

	return problems
}

// InMemory reports whether the database is a private in-memory one.
func (c *Config) InMemory() bool {
	return c.DBFile == memoryPath
}

// DatabasePath resolves the database file. An absolute db_file is used as-is;
// a relative one lives inside data_dir.
func (c *Config) DatabasePath() string {
	if c.InMemory() || filepath.IsAbs(c.DBFile) {
		return c.DBFile
	}
	return filepath.Join(c.DataDir, c.DBFile)
}

// EnsureDataDir creates the directory holding the database file, owner-only.
// It is a no-op for in-memory databases.
func (c *Config) EnsureDataDir() error {
	if c.InMemory() {
		return nil
	}
	dir := filepath.Dir(c.DatabasePath())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errs.Wrap(err, errs.CodeDataDirCreateFailed, "create data directory", errs.Field("path", dir))
	}
	return nil
}

// SlogLevel maps log.level to a slog level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	if lvl, ok := validLogLevels[c.Log.Level]; ok {
		return lvl
	}
	return slog.LevelInfo
}
