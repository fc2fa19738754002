// Package config loads service configuration from an optional YAML
// file with environment variable overrides. Secrets (signing key,
// database DSN) are env-only and never live in the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "TASKNEST_"

type Config struct {
	App struct {
		// Env is dev | staging | prod.
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		MaxBodyBytes       int64    `yaml:"max_body_bytes"`
		RateLimitPerSecond int      `yaml:"rate_limit_per_second"`
		RateLimitBurst     int      `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Database struct {
		DSN             string `yaml:"-"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	} `yaml:"database"`

	Auth struct {
		Secret    string `yaml:"-"`
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"auth"`

	Revocation struct {
		// Backend is memory | redis. Memory keeps revocations local
		// to one instance; redis shares them across instances.
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"revocation"`
}

// Load reads the YAML file at path (skipped when path is empty) and
// applies defaults and env overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Env = "prod"
	cfg.App.LogLevel = "info"
	cfg.Server.Addr = ":8080"
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Server.RateLimitPerSecond = 20
	cfg.Server.RateLimitBurst = 40
	cfg.Database.MaxOpenConns = 10
	cfg.Database.MaxIdleConns = 10
	cfg.Database.ConnMaxLifetime = "30m"
	cfg.Auth.Issuer = "tasknest"
	cfg.Auth.AccessTTL = "30m"
	cfg.Revocation.Backend = "memory"
	cfg.Revocation.Redis.Addr = "localhost:6379"
	return cfg
}

func applyEnv(cfg *Config) {
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")
	setString(&cfg.Server.Addr, "ADDR")
	setString(&cfg.Database.DSN, "PG_DSN")
	setString(&cfg.Auth.Secret, "AUTH_SECRET")
	setString(&cfg.Auth.Issuer, "AUTH_ISSUER")
	setString(&cfg.Auth.AccessTTL, "AUTH_ACCESS_TTL")
	setString(&cfg.Revocation.Backend, "REVOCATION_BACKEND")
	setString(&cfg.Revocation.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Revocation.Redis.Prefix, "REDIS_PREFIX")
	setInt(&cfg.Revocation.Redis.DB, "REDIS_DB")
	if v := lookup("CORS_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.Server.CORSAllowedOrigins = origins
	}
}

func validate(cfg *Config) error {
	switch cfg.Revocation.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unsupported revocation backend %q", cfg.Revocation.Backend)
	}
	if _, err := cfg.AccessTTL(); err != nil {
		return fmt.Errorf("config: auth.access_ttl: %w", err)
	}
	if _, err := cfg.ConnMaxLifetime(); err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	return nil
}

// AccessTTL parses the configured access token lifetime.
func (c *Config) AccessTTL() (time.Duration, error) {
	return time.ParseDuration(c.Auth.AccessTTL)
}

// ConnMaxLifetime parses the configured connection lifetime.
func (c *Config) ConnMaxLifetime() (time.Duration, error) {
	return time.ParseDuration(c.Database.ConnMaxLifetime)
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func setString(dst *string, key string) {
	if v := lookup(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := lookup(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
