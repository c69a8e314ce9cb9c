// Package config loads stepgraph settings from YAML, an optional .env file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/smallnest/stepgraph/graph"
	"github.com/smallnest/stepgraph/log"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSqlite   = "sqlite"
)

// Config is the top-level configuration.
type Config struct {
	Server ServerConfig       `yaml:"server"`
	Log    LogConfig          `yaml:"log"`
	Store  StoreConfig        `yaml:"store"`
	Graphs []graph.Definition `yaml:"graphs"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LogConfig holds the log level name.
type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig selects and configures the run store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Sqlite   SqliteConfig   `yaml:"sqlite"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// SqliteConfig configures the sqlite backend.
type SqliteConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8000},
		Log:    LogConfig{Level: "info"},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "stepgraph:"},
			Postgres: PostgresConfig{
				Table: "runs",
			},
			Sqlite: SqliteConfig{Path: "stepgraph.db", Table: "runs"},
		},
	}
}

// Load reads .env (if present), the YAML file at path (if path is not empty)
// and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	// Variables already set in the environment win over the file.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if addr := os.Getenv("STEPGRAPH_ADDR"); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid STEPGRAPH_ADDR %q: %w", addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid STEPGRAPH_ADDR port %q: %w", portStr, err)
		}
		c.Server.Host = host
		c.Server.Port = port
	}

	setString(&c.Log.Level, "STEPGRAPH_LOG_LEVEL")
	setString(&c.Store.Backend, "STEPGRAPH_STORE")
	setString(&c.Store.Redis.Addr, "REDIS_ADDR")
	setString(&c.Store.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Store.Postgres.URL, "DATABASE_URL")
	setString(&c.Store.Sqlite.Path, "SQLITE_PATH")
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate rejects unknown backends, missing backend options and bad levels.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.URL == "" {
			return errors.New("store.postgres.url (or DATABASE_URL) is required for the postgres backend")
		}
	case BackendSqlite:
		if c.Store.Sqlite.Path == "" {
			return errors.New("store.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() log.LogLevel {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}
