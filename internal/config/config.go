// Package config loads smsledger settings from <data-dir>/config.yaml,
// an optional .env file and SMSLEDGER_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/smsledger/internal/store"
)

// FileName is the config file created by init inside the data dir.
const FileName = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. SMSLEDGER_STORAGE_BACKEND.
const EnvPrefix = "SMSLEDGER"

// Config represents the top-level config.yaml.
type Config struct {
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Categories []string         `yaml:"categories" mapstructure:"categories"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Git        GitConfig        `yaml:"git" mapstructure:"git"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Path is the file-backend directory or the sqlite database file.
	// Relative paths are resolved against the data dir.
	Path  string      `yaml:"path,omitempty" mapstructure:"path"`
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"-" mapstructure:"password"` // env or .env only
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ExtractionConfig tunes message extraction.
type ExtractionConfig struct {
	CurrencyMarkers []string `yaml:"currency_markers" mapstructure:"currency_markers"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" mapstructure:"auto_commit"`
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`
}

// DefaultCategories are offered when reviewing a candidate.
var DefaultCategories = []string{
	"Food", "Entertainment", "Clothing", "Transport", "Utilities",
	"Healthcare", "Education", "Groceries", "Travel", "Other",
}

// Default returns a Config with sensible defaults for a new data dir.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: store.BackendFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: store.DefaultRedisPrefix,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Categories: append([]string(nil), DefaultCategories...),
		Extraction: ExtractionConfig{
			CurrencyMarkers: []string{"Rs", "INR"},
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "smsledger",
			AuthorEmail: "smsledger@localhost",
		},
	}
}

// Load reads the configuration for dataDir. path overrides the config
// file location; a missing file means defaults. A .env file in dataDir is
// loaded into the environment first without overriding variables that
// are already set.
func Load(dataDir, path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dataDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	if path == "" {
		path = filepath.Join(dataDir, FileName)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.redis.addr", d.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.redis.prefix", d.Storage.Redis.Prefix)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("categories", d.Categories)
	v.SetDefault("extraction.currency_markers", d.Extraction.CurrencyMarkers)
	v.SetDefault("git.auto_commit", d.Git.AutoCommit)
	v.SetDefault("git.author_name", d.Git.AuthorName)
	v.SetDefault("git.author_email", d.Git.AuthorEmail)
}

// Validate checks values that would otherwise fail later at a worse time.
func Validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case store.BackendFile, store.BackendSQLite, store.BackendRedis, store.BackendMemory:
	default:
		return fmt.Errorf("storage.backend %q must be one of file, sqlite, redis, memory", cfg.Storage.Backend)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", cfg.Log.Format)
	}
	markers := 0
	for _, m := range cfg.Extraction.CurrencyMarkers {
		if strings.TrimSpace(m) != "" {
			markers++
		}
	}
	if markers == 0 {
		return fmt.Errorf("extraction.currency_markers must list at least one marker")
	}
	if cfg.Storage.Backend == store.BackendRedis && cfg.Storage.Redis.Addr == "" {
		return fmt.Errorf("storage.redis.addr is required for the redis backend")
	}
	return nil
}

// StoreOptions maps the storage section onto store.Options.
func (c *Config) StoreOptions(dataDir string) store.Options {
	return store.Options{
		Backend:       c.Storage.Backend,
		Path:          c.Storage.Path,
		DataDir:       dataDir,
		RedisAddr:     c.Storage.Redis.Addr,
		RedisPassword: c.Storage.Redis.Password,
		RedisDB:       c.Storage.Redis.DB,
		RedisPrefix:   c.Storage.Redis.Prefix,
	}
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
