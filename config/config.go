package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yeremiapane/table-ordering/utils"
)

const (
	devCustomerSecret = "table-ordering-customer-dev-secret"
	devStaffSecret    = "table-ordering-staff-dev-secret"
)

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	User   string `yaml:"user"`
	Pass   string `yaml:"pass"`
	Name   string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RequestsPerSec float64       `yaml:"requestsPerSec"`
	Burst          int           `yaml:"burst"`
	AuthPerMinute  int           `yaml:"authPerMinute"`
	Capacity       int           `yaml:"capacity"`
	RefillInterval time.Duration `yaml:"refillInterval"`
	Prefix         string        `yaml:"prefix"`
}

type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type Config struct {
	Env     string `yaml:"env"`
	Port    string `yaml:"port"`
	GinMode string `yaml:"ginMode"`

	DB        DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	AMQP      AMQPConfig      `yaml:"amqp"`

	CustomerJWTSecret string        `yaml:"customerJwtSecret"`
	StaffJWTSecret    string        `yaml:"staffJwtSecret"`
	AccessTokenTTL    time.Duration `yaml:"accessTokenTtl"`
	RefreshTokenTTL   time.Duration `yaml:"refreshTokenTtl"`
	StaffTokenTTL     time.Duration `yaml:"staffTokenTtl"`

	SessionIdleTimeout    time.Duration `yaml:"sessionIdleTimeout"`
	EndedSessionRetention time.Duration `yaml:"endedSessionRetention"`
	CleanupInterval       time.Duration `yaml:"cleanupInterval"`

	LogLevel    string   `yaml:"logLevel"`
	LogFile     string   `yaml:"logFile"`
	CORSOrigins []string `yaml:"corsOrigins"`

	AdminUserName string `yaml:"adminUserName"`
	AdminPassword string `yaml:"adminPassword"`
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load builds the configuration from the environment. When CONFIG_FILE names
// a YAML file its values override the environment.
func Load() (Config, error) {
	cfg := Config{
		Env:     getEnv("APP_ENV", "development"),
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),
		DB: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "mysql"),
			DSN:    os.Getenv("DB_DSN"),
			Host:   getEnv("DB_HOST", "127.0.0.1"),
			Port:   getEnv("DB_PORT", "3306"),
			User:   getEnv("DB_USER", "root"),
			Pass:   os.Getenv("DB_PASS"),
			Name:   getEnv("DB_NAME", "table_ordering"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:        envBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSec: envFloat("RATE_LIMIT_RPS", 50),
			Burst:          envInt("RATE_LIMIT_BURST", 100),
			AuthPerMinute:  envInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
			Capacity:       envInt("RATE_LIMIT_CAPACITY", 120),
			RefillInterval: envDuration("RATE_LIMIT_REFILL_INTERVAL", 500*time.Millisecond),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl"),
		},
		AMQP: AMQPConfig{
			URL:   os.Getenv("AMQP_URL"),
			Queue: getEnv("AMQP_QUEUE", "table_ordering.events"),
		},
		CustomerJWTSecret:     getEnv("CUSTOMER_JWT_SECRET", devCustomerSecret),
		StaffJWTSecret:        getEnv("STAFF_JWT_SECRET", devStaffSecret),
		AccessTokenTTL:        envDuration("ACCESS_TOKEN_TTL", 3*time.Hour),
		RefreshTokenTTL:       envDuration("REFRESH_TOKEN_TTL", 720*time.Hour),
		StaffTokenTTL:         envDuration("STAFF_TOKEN_TTL", 12*time.Hour),
		SessionIdleTimeout:    envDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		EndedSessionRetention: envDuration("ENDED_SESSION_RETENTION", 168*time.Hour),
		CleanupInterval:       envDuration("CLEANUP_INTERVAL", time.Hour),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFile:               os.Getenv("LOG_FILE"),
		CORSOrigins:           envList("CORS_ORIGINS", []string{"*"}),
		AdminUserName:         getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:         os.Getenv("ADMIN_PASSWORD"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlay(path); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// WarnDefaults logs every setting that still carries a development value.
func (c Config) WarnDefaults() {
	if c.CustomerJWTSecret == devCustomerSecret {
		utils.ErrorLogger.Warn("CUSTOMER_JWT_SECRET not set, using development secret")
	}
	if c.StaffJWTSecret == devStaffSecret {
		utils.ErrorLogger.Warn("STAFF_JWT_SECRET not set, using development secret")
	}
	if c.IsProduction() && len(c.CORSOrigins) == 1 && c.CORSOrigins[0] == "*" {
		utils.ErrorLogger.Warn("CORS allows every origin in production")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
