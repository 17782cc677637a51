package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvLocal      = "local"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	JWT         JWTConfig         `toml:"jwt"`
	RateLimit   RateLimitConfig   `toml:"rate_limit"`
	ClientCache ClientCacheConfig `toml:"client_cache"`
	Cache       CacheConfig       `toml:"cache"`
	Admin       AdminConfig       `toml:"admin"`
	Worker      WorkerConfig      `toml:"worker"`
	Health      HealthConfig      `toml:"health"`
}

type ServerConfig struct {
	Port         string   `toml:"port"`
	Environment  string   `toml:"environment"`
	AllowOrigins []string `toml:"allow_origins"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DatabaseConfig struct {
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"ssl_mode"`
}

// DSN prefers an explicit URL over the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisEndpoint struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

func (r RedisEndpoint) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type RedisConfig struct {
	Cache     RedisEndpoint `toml:"cache"`
	RateLimit RedisEndpoint `toml:"rate_limit"`

	// Bound on every single store round-trip.
	TimeoutMillis int `toml:"timeout_ms"`

	BreakerMaxFailures     int `toml:"breaker_max_failures"`
	BreakerCoolDownSeconds int `toml:"breaker_cool_down_seconds"`
}

func (r RedisConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMillis) * time.Millisecond
}

func (r RedisConfig) BreakerCoolDown() time.Duration {
	return time.Duration(r.BreakerCoolDownSeconds) * time.Second
}

type JWTConfig struct {
	Secret                   string `toml:"secret"`
	AccessTokenExpireMinutes int    `toml:"access_token_expire_minutes"`
	RefreshTokenExpireDays   int    `toml:"refresh_token_expire_days"`
}

func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenExpireMinutes) * time.Minute
}

func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTokenExpireDays) * 24 * time.Hour
}

type RateLimitConfig struct {
	DefaultLimit  int `toml:"default_limit"`
	DefaultPeriod int `toml:"default_period"`

	// Per-IP token bucket in front of the login endpoint.
	LoginRPS   float64 `toml:"login_rps"`
	LoginBurst int     `toml:"login_burst"`
}

type ClientCacheConfig struct {
	MaxAge int `toml:"max_age"`
}

type CacheConfig struct {
	DefaultExpirationSeconds int `toml:"default_expiration_seconds"`
	ListExpirationSeconds    int `toml:"list_expiration_seconds"`
}

type AdminConfig struct {
	Name     string `toml:"name"`
	Email    string `toml:"email"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	TierName string `toml:"tier_name"`
}

// Enabled reports whether a first superuser should be seeded.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Username != "" && a.Password != ""
}

type WorkerConfig struct {
	BlacklistPurgeSchedule string `toml:"blacklist_purge_schedule"`
}

type HealthConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
	TimeoutSeconds  int `toml:"timeout_seconds"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Environment: EnvLocal,
		},
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "postgres",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Cache:                  RedisEndpoint{Host: "localhost", Port: 6379},
			RateLimit:              RedisEndpoint{Host: "localhost", Port: 6379},
			TimeoutMillis:          500,
			BreakerMaxFailures:     5,
			BreakerCoolDownSeconds: 10,
		},
		JWT: JWTConfig{
			AccessTokenExpireMinutes: 30,
			RefreshTokenExpireDays:   7,
		},
		RateLimit: RateLimitConfig{
			DefaultLimit:  10,
			DefaultPeriod: 3600,
			LoginRPS:      1,
			LoginBurst:    5,
		},
		ClientCache: ClientCacheConfig{MaxAge: 60},
		Cache: CacheConfig{
			DefaultExpirationSeconds: 3600,
			ListExpirationSeconds:    60,
		},
		Admin: AdminConfig{TierName: "free"},
		Worker: WorkerConfig{
			BlacklistPurgeSchedule: "@every 1h",
		},
		Health: HealthConfig{
			IntervalSeconds: 15,
			TimeoutSeconds:  3,
		},
	}
}

// Load reads the TOML file at path (a missing file is not an error),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	envString(&c.Server.Environment, "ENVIRONMENT")
	envString(&c.Server.Port, "PORT")
	envString(&c.Log.Level, "LOG_LEVEL")

	envString(&c.Database.URL, "DATABASE_URL")
	envString(&c.Database.Host, "POSTGRES_SERVER")
	envInt(&c.Database.Port, "POSTGRES_PORT")
	envString(&c.Database.User, "POSTGRES_USER")
	envString(&c.Database.Password, "POSTGRES_PASSWORD")
	envString(&c.Database.Name, "POSTGRES_DB")

	envString(&c.Redis.Cache.Host, "REDIS_CACHE_HOST")
	envInt(&c.Redis.Cache.Port, "REDIS_CACHE_PORT")
	envString(&c.Redis.RateLimit.Host, "REDIS_RATE_LIMIT_HOST")
	envInt(&c.Redis.RateLimit.Port, "REDIS_RATE_LIMIT_PORT")
	envInt(&c.Redis.TimeoutMillis, "REDIS_TIMEOUT_MS")

	envString(&c.JWT.Secret, "JWT_SECRET")
	envInt(&c.JWT.AccessTokenExpireMinutes, "ACCESS_TOKEN_EXPIRE_MINUTES")
	envInt(&c.JWT.RefreshTokenExpireDays, "REFRESH_TOKEN_EXPIRE_DAYS")

	envInt(&c.RateLimit.DefaultLimit, "DEFAULT_RATE_LIMIT_LIMIT")
	envInt(&c.RateLimit.DefaultPeriod, "DEFAULT_RATE_LIMIT_PERIOD")

	envInt(&c.ClientCache.MaxAge, "CLIENT_CACHE_MAX_AGE")

	envString(&c.Admin.Name, "ADMIN_NAME")
	envString(&c.Admin.Email, "ADMIN_EMAIL")
	envString(&c.Admin.Username, "ADMIN_USERNAME")
	envString(&c.Admin.Password, "ADMIN_PASSWORD")
	envString(&c.Admin.TierName, "TIER_NAME")
}

func (c *Config) Validate() error {
	switch c.Server.Environment {
	case EnvLocal, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid environment %q: must be one of local, staging, production", c.Server.Environment)
	}

	if c.Server.Port == "" {
		return errors.New("server port is required")
	}

	if c.RateLimit.DefaultPeriod <= 0 {
		return fmt.Errorf("default rate limit period must be positive, got %d", c.RateLimit.DefaultPeriod)
	}
	if c.RateLimit.DefaultLimit < 0 {
		return fmt.Errorf("default rate limit must not be negative, got %d", c.RateLimit.DefaultLimit)
	}

	if c.JWT.Secret == "" {
		if c.Server.Environment != EnvLocal {
			return errors.New("JWT_SECRET is required outside the local environment")
		}
		c.JWT.Secret = "local-development-secret"
	}
	if c.JWT.AccessTokenExpireMinutes <= 0 || c.JWT.RefreshTokenExpireDays <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	if c.Redis.TimeoutMillis <= 0 {
		return fmt.Errorf("redis timeout must be positive, got %dms", c.Redis.TimeoutMillis)
	}

	if c.Admin.TierName == "" {
		return errors.New("first tier name is required")
	}

	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
