package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Seed      bool            `yaml:"seed"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn"`
}

// CacheConfig enables the Redis user cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	// DefaultActor acts for requests that carry no actor header.
	DefaultActor string `yaml:"default_actor"`
}

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Path sends logs to a size-capped file instead of the console.
	Path      string `yaml:"path"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: TransportHTTP,
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
			Path:   "labs.db",
		},
		Auth: AuthConfig{
			DefaultActor: "user-1",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:     "info",
			Format:    LogFormatText,
			MaxSizeMB: 6,
		},
		Seed: true,
	}
}

// Load layers defaults, an optional .env file, an optional YAML file and
// LABS_* environment variables, in increasing precedence. Variables set in
// the process environment win over the same keys in .env.
func Load() (Config, error) {
	envFile := os.Getenv("LABS_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := readDotEnv(envFile)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := Default()

	if path, ok := lookup("LABS_CONFIG_PATH"); ok && path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q must be http or stdio", c.Transport.Mode))
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite"))
		}
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be memory, sqlite or postgres", c.Storage.Driver))
	}
	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Log.Path != "" && c.Log.MaxSizeMB <= 0 {
		errs = append(errs, errors.New("log.max_size_mb must be positive"))
	}
	if c.Auth.DefaultActor == "" {
		errs = append(errs, errors.New("auth.default_actor is required"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if host, ok := lookup("LABS_SERVER_HOST"); ok && host != "" {
		cfg.Server.Host = host
	}
	if portStr, ok := lookup("LABS_SERVER_PORT"); ok && portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid LABS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode, ok := lookup("LABS_TRANSPORT_MODE"); ok && mode != "" {
		cfg.Transport.Mode = mode
	}
	if driver, ok := lookup("LABS_STORAGE_DRIVER"); ok && driver != "" {
		cfg.Storage.Driver = driver
	}
	if path, ok := lookup("LABS_STORAGE_PATH"); ok && path != "" {
		cfg.Storage.Path = path
	}
	if dsn, ok := lookup("LABS_STORAGE_DSN"); ok && dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if addr, ok := lookup("LABS_REDIS_ADDR"); ok && addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if ttlStr, ok := lookup("LABS_CACHE_TTL"); ok && ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return fmt.Errorf("invalid LABS_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = ttl
	}
	if actor, ok := lookup("LABS_DEFAULT_ACTOR"); ok && actor != "" {
		cfg.Auth.DefaultActor = actor
	}
	if level, ok := lookup("LABS_LOG_LEVEL"); ok && level != "" {
		cfg.Log.Level = level
	}
	if format, ok := lookup("LABS_LOG_FORMAT"); ok && format != "" {
		cfg.Log.Format = format
	}
	if path, ok := lookup("LABS_LOG_PATH"); ok && path != "" {
		cfg.Log.Path = path
	}
	if sizeStr, ok := lookup("LABS_LOG_MAX_SIZE_MB"); ok && sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return fmt.Errorf("invalid LABS_LOG_MAX_SIZE_MB: %w", err)
		}
		cfg.Log.MaxSizeMB = size
	}
	if seedStr, ok := lookup("LABS_SEED"); ok && seedStr != "" {
		seed, err := strconv.ParseBool(seedStr)
		if err != nil {
			return fmt.Errorf("invalid LABS_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
