package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	appDirName     = "TodoDesk"
	defaultEnvFile = "todo.env"
	envFileVar     = "TODO_ENV_FILE"
)

type Config struct {
	// Application
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	DataDir     string `env:"DATA_DIR"`
	EnvFile     string `env:"-"`

	// Store
	DBName          string        `env:"DB_NAME" envDefault:"todos.db"`
	DatabaseTimeout time.Duration `env:"DATABASE_TIMEOUT" envDefault:"5s"`

	// Relay
	RelayAddr       string        `env:"RELAY_ADDR" envDefault:"127.0.0.1:7461"`
	RelaySecret     string        `env:"RELAY_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Observability
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"console"`
	EnableMetrics bool   `env:"ENABLE_METRICS" envDefault:"false"`
	MetricsPort   int    `env:"METRICS_PORT" envDefault:"9464"`
	EnableTracing bool   `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint  string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
}

// Load reads an optional env file and then the process environment.
// An empty envFile resolves to TODO_ENV_FILE or <data dir>/todo.env.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = os.Getenv(envFileVar)
	}
	if envFile == "" {
		dir, err := resolveDataDir(os.Getenv("DATA_DIR"))
		if err != nil {
			return nil, err
		}
		envFile = filepath.Join(dir, defaultEnvFile)
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.EnvFile = envFile

	dir, err := resolveDataDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func resolveDataDir(dir string) (string, error) {
	if strings.TrimSpace(dir) != "" {
		return filepath.Clean(dir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBName) == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if strings.ContainsAny(c.DBName, `/\`) {
		return fmt.Errorf("DB_NAME must be a file name: %s", c.DBName)
	}

	if strings.TrimSpace(c.RelayAddr) == "" {
		return fmt.Errorf("RELAY_ADDR is required")
	}

	// The relay secret is required in production
	if c.IsProduction() && c.RelaySecret == "" {
		return fmt.Errorf("RELAY_SECRET is required in production")
	}

	if c.EnableMetrics && (c.MetricsPort < 1 || c.MetricsPort > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}

	if c.DatabaseTimeout <= 0 {
		return fmt.Errorf("DATABASE_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.RelaySecret != "" && c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBName)
}

type StoreConfig struct {
	DataDir    string
	Path       string
	ConfigPath string
	Timeout    time.Duration
}

func (c *Config) GetStoreConfig() StoreConfig {
	return StoreConfig{
		DataDir:    c.DataDir,
		Path:       c.DBPath(),
		ConfigPath: c.EnvFile,
		Timeout:    c.DatabaseTimeout,
	}
}

type RelayConfig struct {
	Addr            string
	Secret          string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) GetRelayConfig() RelayConfig {
	return RelayConfig{
		Addr:            c.RelayAddr,
		Secret:          c.RelaySecret,
		TokenTTL:        c.TokenTTL,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

type ObservabilityConfig struct {
	EnableMetrics bool
	MetricsPort   int
	EnableTracing bool
	OTLPEndpoint  string
	LogLevel      string
	LogFormat     string
}

func (c *Config) GetObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		EnableMetrics: c.EnableMetrics,
		MetricsPort:   c.MetricsPort,
		EnableTracing: c.EnableTracing,
		OTLPEndpoint:  c.OTLPEndpoint,
		LogLevel:      c.LogLevel,
		LogFormat:     c.LogFormat,
	}
}
