// Package config provides configuration loading and structs for the Shindan server.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/shindan/internal/chat"
	"github.com/hyperjump/shindan/internal/ranking"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                  `yaml:"debug"`
	Server    ServerConfig          `yaml:"server"`
	Storage   StorageConfig         `yaml:"storage"`
	Cache     CacheConfig           `yaml:"cache"`
	Knowledge KnowledgeConfig       `yaml:"knowledge"`
	Ranking   ranking.RankingConfig `yaml:"ranking"`
	Chat      chat.Config           `yaml:"chat"`
	Session   SessionConfig         `yaml:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig selects and locates the database.
type StorageConfig struct {
	Driver       string        `yaml:"driver"` // sqlite3 or postgres
	DatabasePath string        `yaml:"database_path"`
	PostgresDSN  string        `yaml:"postgres_dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// DSN returns the data source for the configured driver.
func (s *StorageConfig) DSN() string {
	if s.Driver == "postgres" {
		return s.PostgresDSN
	}
	return s.DatabasePath
}

// CacheConfig holds Redis cache settings. The cache is off unless enabled.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// KnowledgeConfig locates the knowledge base file. An empty path means the built-in base.
type KnowledgeConfig struct {
	Path          string `yaml:"path"`
	Watch         bool   `yaml:"watch"`
	ImportOnStart *bool  `yaml:"import_on_start"`
}

// ImportOnStartOrDefault returns whether to import at startup; defaults to true when unset.
func (k *KnowledgeConfig) ImportOnStartOrDefault() bool {
	if k.ImportOnStart != nil {
		return *k.ImportOnStart
	}
	return true
}

// SessionConfig controls session analytics logging.
type SessionConfig struct {
	LoggingEnabled *bool         `yaml:"logging_enabled"`
	Timeout        time.Duration `yaml:"timeout"`
}

// LoggingEnabledOrDefault returns whether sessions are logged; defaults to true when unset.
func (s *SessionConfig) LoggingEnabledOrDefault() bool {
	if s.LoggingEnabled != nil {
		return *s.LoggingEnabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies environment
// overrides, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	if cfg.Knowledge.Path != "" {
		cfg.Knowledge.Path = expandPath(cfg.Knowledge.Path, configDir)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the default config with environment overrides applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// ApplyEnv overrides cfg from SHINDAN_* variables, DATABASE_URL, and REDIS_URL.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("SHINDAN_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SHINDAN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHINDAN_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("SHINDAN_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHINDAN_DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		if path, ok := strings.CutPrefix(v, "sqlite:"); ok {
			cfg.Storage.Driver = "sqlite3"
			cfg.Storage.DatabasePath = path
		} else {
			cfg.Storage.Driver = "postgres"
			cfg.Storage.PostgresDSN = v
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.URL = v
	}
	if v := os.Getenv("SHINDAN_KNOWLEDGE_PATH"); v != "" {
		cfg.Knowledge.Path = v
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Write encodes the config as YAML to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
