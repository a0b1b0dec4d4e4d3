// ABOUTME: Layered configuration for the server, importer and CLI
// ABOUTME: Defaults, then a TOML file under XDG config home, then .env files and CXBOARD_ variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "CXBOARD_"

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type StorageConfig struct {
	Backend     string `toml:"backend" env:"BACKEND"`
	SQLitePath  string `toml:"sqlite_path" env:"SQLITE_PATH"`
	PostgresDSN string `toml:"postgres_dsn" env:"POSTGRES_DSN"`
}

type ImportConfig struct {
	MaxBytes         int64  `toml:"max_bytes" env:"MAX_BYTES"`
	Atomic           bool   `toml:"atomic" env:"ATOMIC"`
	DefaultDirectory string `toml:"default_directory" env:"DEFAULT_DIRECTORY"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

type Config struct {
	Listen  string        `toml:"listen" env:"LISTEN"`
	Storage StorageConfig `toml:"storage" envPrefix:"STORAGE_"`
	Import  ImportConfig  `toml:"import" envPrefix:"IMPORT_"`
	CORS    CORSConfig    `toml:"cors" envPrefix:"CORS_"`
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
}

// Dir returns the XDG-compliant directory for the config file.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "cxboard")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultSQLitePath returns the database location under XDG data home.
func DefaultSQLitePath() string {
	return filepath.Join(xdg.DataHome, "cxboard", "cxboard.db")
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:5000",
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: DefaultSQLitePath(),
		},
		Import: ImportConfig{
			MaxBytes: 10 << 20,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadEnv loads the env files that exist and returns how many were read.
// Variables already present in the environment are never overwritten.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load builds the configuration. An empty path means the default location,
// which may be missing; an explicit path must exist.
func Load(path string, envFiles []string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = Path()
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config file '%s': %s", path, strict.String())
		}
		return fmt.Errorf("failed to parse TOML '%s': %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of memory, sqlite, postgres, got '%s'", c.Storage.Backend)
	}
	if c.Import.MaxBytes <= 0 {
		return fmt.Errorf("import.max_bytes must be positive, got %d", c.Import.MaxBytes)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got '%s'", c.Log.Format)
	}
	return nil
}

// Save writes cfg as TOML, creating the directory when needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
