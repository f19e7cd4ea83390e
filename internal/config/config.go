package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	AppEnv string
	Port   string

	Postgres PostgresConfig
	Redis    RedisConfig

	// SessionBackend selects where identity sessions live: "redis" or "memory".
	SessionBackend string
	// CacheBackend selects the settings cache: "memory", "redis" or "memcache".
	CacheBackend  string
	MemcachedAddr string

	JWTSecret             string
	SessionTTL            time.Duration
	RecoveryTTL           time.Duration
	PasswordResetRedirect string

	AllowedOrigins []string
	LoginRateLimit float64
	LoginBurst     int

	ChatPollInterval time.Duration
	SettingsCacheTTL time.Duration

	// GrantRoleOnSubmit restores the legacy behaviour of granting the member
	// role when an application is submitted rather than when it is accepted.
	GrantRoleOnSubmit bool

	DiscordWebhookID    string
	DiscordWebhookToken string

	TraceEndpoint string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
}

// DSN renders the URL form accepted by both lib/pq and pgx.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.SessionBackend == "redis" || c.CacheBackend == "redis"
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),
		Postgres: PostgresConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			User:     getEnv("PG_USER", "postgres"),
			Password: getEnv("PG_PASSWORD", "postgres"),
			DB:       getEnv("PG_DB", "clubhouse"),
			SSLMode:  getEnv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		SessionBackend:        getEnv("SESSION_BACKEND", "redis"),
		CacheBackend:          getEnv("CACHE_BACKEND", "memory"),
		MemcachedAddr:         getEnv("MEMCACHED_ADDR", "localhost:11211"),
		JWTSecret:             getEnv("JWT_SECRET", "change-me"),
		SessionTTL:            getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		RecoveryTTL:           getEnvDuration("RECOVERY_TTL", 15*time.Minute),
		PasswordResetRedirect: getEnv("PASSWORD_RESET_REDIRECT", "http://localhost:5173/login"),
		AllowedOrigins:        getEnvList("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://localhost:5173"}),
		LoginRateLimit:        getEnvFloat("LOGIN_RATE_LIMIT", 1),
		LoginBurst:            getEnvInt("LOGIN_RATE_BURST", 5),
		ChatPollInterval:      getEnvDuration("CHAT_POLL_INTERVAL", 2*time.Second),
		SettingsCacheTTL:      getEnvDuration("SETTINGS_CACHE_TTL", 5*time.Minute),
		GrantRoleOnSubmit:     getEnvBool("APPLICATION_GRANT_ON_SUBMIT", false),
		DiscordWebhookID:      getEnv("DISCORD_WEBHOOK_ID", ""),
		DiscordWebhookToken:   getEnv("DISCORD_WEBHOOK_TOKEN", ""),
		TraceEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
