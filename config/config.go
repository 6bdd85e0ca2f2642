package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration. Values come from defaults, then an
// optional YAML file, then environment variables.
type Config struct {
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Store StoreConfig `yaml:"store"`
	Auth  AuthConfig  `yaml:"auth"`
}

type StoreConfig struct {
	// Backend is one of memory, postgres, sqlite, redis.
	Backend        string `yaml:"backend"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	SQLitePath     string `yaml:"sqlite_path"`
	RedisURL       string `yaml:"redis_url"`
	RedisDB        int    `yaml:"redis_db"`
	RedisNamespace string `yaml:"redis_namespace"`
}

type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	// Latency delays login and register, the way the old mock forms did.
	Latency    time.Duration `yaml:"latency"`
	BcryptCost int           `yaml:"bcrypt_cost"`
	// RatePerMinute limits login and register attempts per client.
	RatePerMinute int `yaml:"rate_per_minute"`
	RateBurst     int `yaml:"rate_burst"`
}

// DevTokenSecret is the built-in signing secret. It is public, so it is only
// fit for local runs.
const DevTokenSecret = "change-me-storefront-dev-secret"

func Default() *Config {
	return &Config{
		Addr:      ":8082",
		LogLevel:  "INFO",
		LogFormat: "text",
		Store: StoreConfig{
			Backend:        "memory",
			SQLitePath:     "storefront.db",
			RedisNamespace: "storefront",
		},
		Auth: AuthConfig{
			TokenSecret:   DevTokenSecret,
			TokenTTL:      24 * time.Hour,
			RatePerMinute: 30,
			RateBurst:     5,
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	str("STOREFRONT_ADDR", &c.Addr)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("STORE_BACKEND", &c.Store.Backend)
	str("DATABASE_URL", &c.Store.PostgresDSN)
	str("SQLITE_PATH", &c.Store.SQLitePath)
	str("REDIS_URL", &c.Store.RedisURL)
	str("REDIS_NAMESPACE", &c.Store.RedisNamespace)
	str("TOKEN_SECRET", &c.Auth.TokenSecret)

	for name, dst := range map[string]*int{
		"REDIS_DB":             &c.Store.RedisDB,
		"BCRYPT_COST":          &c.Auth.BcryptCost,
		"AUTH_RATE_PER_MINUTE": &c.Auth.RatePerMinute,
		"AUTH_RATE_BURST":      &c.Auth.RateBurst,
	} {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}
	for name, dst := range map[string]*time.Duration{
		"TOKEN_TTL":    &c.Auth.TokenTTL,
		"AUTH_LATENCY": &c.Auth.Latency,
	} {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return errors.New("postgres backend needs DATABASE_URL")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			return errors.New("redis backend needs REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if len(c.Auth.TokenSecret) < 16 {
		return errors.New("token secret must be at least 16 bytes")
	}
	if c.Auth.Latency < 0 {
		return errors.New("auth latency must be >= 0")
	}
	return nil
}

// UsesDevSecret reports whether tokens would be signed with DevTokenSecret.
func (c *Config) UsesDevSecret() bool {
	return c.Auth.TokenSecret == DevTokenSecret
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
