// Package config provides configuration management for webpack-chart.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. WEBPACK_CHART_SERVER_PORT.
const EnvPrefix = "WEBPACK_CHART"

// Config holds all configuration for the application.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty means stdout
}

// ServerConfig holds web viewer configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxSessions  int           `mapstructure:"max_sessions"`
	MaxBodySize  int64         `mapstructure:"max_body_size"`
}

// ChartConfig holds presentation settings handed to the rendering side.
type ChartConfig struct {
	DemoStyle      string  `mapstructure:"demo_style"`
	Style          string  `mapstructure:"style"`
	LabelThreshold float64 `mapstructure:"label_threshold"` // degrees
	MaxDepth       int     `mapstructure:"max_depth"`       // rings around the center
}

// FetchConfig holds remote report fetching configuration.
type FetchConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxBodySize int64         `mapstructure:"max_body_size"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local, cos or s3
	LocalPath string `mapstructure:"local_path"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`   // cos, e.g. "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`   // cos, "https" or "http"
	Endpoint  string `mapstructure:"endpoint"` // s3, e.g. "minio:9000"
	UseSSL    bool   `mapstructure:"use_ssl"`  // s3
}

// DatabaseConfig holds the report catalog connection. An empty Type disables it.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, postgres or mysql
	Path     string `mapstructure:"path"` // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// Enabled reports whether a catalog database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Type != ""
}

// Load reads configuration from the specified file path. Values from a .env file
// next to the working directory and WEBPACK_CHART_* variables override the file.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/webpack-chart")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file: defaults and environment only.
	}

	return unmarshal(v)
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return unmarshal(v)
}

// Default returns the configuration built from defaults alone.
func Default() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv loads a .env file when one exists. Variables already present in the
// process environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading .env file from %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_sessions", 256)
	v.SetDefault("server.max_body_size", 64<<20)

	v.SetDefault("chart.demo_style", "gray")
	v.SetDefault("chart.style", "default")
	v.SetDefault("chart.label_threshold", 15.0)
	v.SetDefault("chart.max_depth", 4)

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_body_size", 64<<20)
	v.SetDefault("fetch.user_agent", "webpack-chart")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("database.type", "")
	v.SetDefault("database.path", "./webpack-chart.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.max_conns", 10)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxSessions < 1 {
		return fmt.Errorf("server max_sessions must be at least 1")
	}
	if c.Chart.LabelThreshold < 0 {
		return fmt.Errorf("chart label_threshold must not be negative")
	}
	if c.Chart.MaxDepth < 1 {
		return fmt.Errorf("chart max_depth must be at least 1")
	}
	if c.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch max_body_size must be positive")
	}

	switch c.Database.Type {
	case "", "sqlite", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	// Storage details are validated by the storage package.
	return nil
}
