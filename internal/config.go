package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	TransportCanned = "canned"
	TransportHTTP   = "http"

	DefaultEndpoint    = "http://localhost:8000/v1/chat/completions"
	DefaultModel       = "rag-agritech-agent"
	DefaultCannedDelay = 1500 * time.Millisecond
)

// Config holds runtime settings. Precedence: flags > environment > config file > defaults
type Config struct {
	Backend     string          `yaml:"backend"`
	StoragePath string          `yaml:"storage_path"`
	StorageKey  string          `yaml:"storage_key"`
	Redis       RedisConfig     `yaml:"redis"`
	Transport   TransportConfig `yaml:"transport"`
}

// RedisConfig configures the Redis backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// TransportConfig configures how assistant replies are produced
type TransportConfig struct {
	Mode        string        `yaml:"mode"` // "canned" or "http"
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	CannedDelay time.Duration `yaml:"canned_delay"`
	Timeout     time.Duration `yaml:"timeout"` // 0 means no client timeout
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig(paths StoragePaths) *Config {
	return &Config{
		Backend:     BackendSQLite,
		StoragePath: paths.DatabasePath,
		StorageKey:  StorageKey,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "agrichat:",
		},
		Transport: TransportConfig{
			Mode:        TransportCanned,
			Endpoint:    DefaultEndpoint,
			Model:       DefaultModel,
			CannedDelay: DefaultCannedDelay,
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path (if present) and AGRICHAT_* variables
func LoadConfig(path string, paths StoragePaths) (*Config, error) {
	cfg := DefaultConfig(paths)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ParseError{Source: "config", Key: path, Err: err}
			}
			LogDebug("Loaded config from %s", path)
		case os.IsNotExist(err):
			LogDebug("No config file at %s, using defaults", path)
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Backend = getEnv("AGRICHAT_BACKEND", c.Backend)
	c.StoragePath = getEnv("AGRICHAT_STORAGE", c.StoragePath)
	c.StorageKey = getEnv("AGRICHAT_STORAGE_KEY", c.StorageKey)
	c.Redis.Addr = getEnv("AGRICHAT_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("AGRICHAT_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.Prefix = getEnv("AGRICHAT_REDIS_PREFIX", c.Redis.Prefix)
	c.Transport.Mode = getEnv("AGRICHAT_TRANSPORT", c.Transport.Mode)
	c.Transport.Endpoint = getEnv("AGRICHAT_ENDPOINT", c.Transport.Endpoint)
	c.Transport.Model = getEnv("AGRICHAT_MODEL", c.Transport.Model)

	if v := os.Getenv("AGRICHAT_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return &ParseError{Source: "config", Key: "AGRICHAT_REDIS_DB", Err: err}
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("AGRICHAT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ParseError{Source: "config", Key: "AGRICHAT_TIMEOUT", Err: err}
		}
		c.Transport.Timeout = d
	}
	return nil
}

// Validate rejects unknown backends and transport modes
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unsupported storage backend: %s (supported: sqlite, redis)", c.Backend)
	}
	switch c.Transport.Mode {
	case TransportCanned, TransportHTTP:
	default:
		return fmt.Errorf("unsupported transport: %s (supported: canned, http)", c.Transport.Mode)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
