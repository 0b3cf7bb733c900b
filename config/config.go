// Package config assembles runtime settings from an optional YAML file, an
// optional .env file, and the process environment (highest precedence).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is one of "postgres", "sqlite" or "memory".
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
	Retries    int    `yaml:"connect_retries"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     "postgres",
			Port:       "5432",
			SSLMode:    "require",
			SQLitePath: "haven.db",
			Retries:    5,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("HAVEN_CONFIG"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
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

func env(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (c *Config) applyEnv() error {
	if port, ok := env("PORT"); ok {
		if strings.Contains(port, ":") {
			c.Server.Addr = port
		} else {
			c.Server.Addr = ":" + port
		}
	}
	if origins, ok := env("CORS_ORIGINS"); ok {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}

	strs := map[string]*string{
		"DB_DRIVER":    &c.Database.Driver,
		"DATABASE_URL": &c.Database.URL,
		"DB_USER":      &c.Database.User,
		"DB_PASSWORD":  &c.Database.Password,
		"DB_HOST":      &c.Database.Host,
		"DB_PORT":      &c.Database.Port,
		"DB_NAME":      &c.Database.Name,
		"DB_SSLMODE":   &c.Database.SSLMode,
		"SQLITE_PATH":  &c.Database.SQLitePath,
		"JWT_SECRET":   &c.Auth.JWTSecret,
		"LOG_LEVEL":    &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := env(key); ok {
			*dst = v
		}
	}

	if v, ok := env("DB_CONNECT_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid DB_CONNECT_RETRIES value: %q", v)
		}
		c.Database.Retries = n
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q (want postgres, sqlite or memory)", c.Database.Driver)
	}
	if strings.Contains(c.Server.Addr, " ") {
		return fmt.Errorf("invalid listen address: %q", c.Server.Addr)
	}
	return nil
}

// PostgresURL returns DATABASE_URL if set, otherwise builds one from parts.
func (d DatabaseConfig) PostgresURL() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}
