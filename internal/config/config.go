package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Clicks    ClickConfig
	GeoIP     GeoIPConfig
	Log       LogConfig
}

type AppConfig struct {
	Port           string
	Env            string
	BaseURL        string
	CORSOrigins    []string
	TrustedProxies []string // адреса прокси, которым доверяется X-Forwarded-For при rate limiting
}

// IsProduction включает Secure-флаг у cookie и release-режим gin
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN возвращает строку подключения в формате postgres://
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	CacheTTL time.Duration
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string
	APIKeys           map[string]string // API key -> name/description
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type ClickConfig struct {
	Workers    int
	BufferSize int
}

type GeoIPConfig struct {
	DBPath string
}

type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom читает конфиг из указанного .env файла и переменных окружения.
// Отсутствующий файл не считается ошибкой.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")
	cfg.App.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.App.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")
	cfg.DB.SSLMode = v.GetString("DB_SSLMODE")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.CacheTTL = v.GetDuration("LINK_CACHE_TTL")

	cfg.Auth.JWTSecret = v.GetString("AUTH_JWT_SECRET")
	cfg.Auth.TokenTTL = v.GetDuration("AUTH_TOKEN_TTL")
	cfg.Auth.AdminEmail = v.GetString("ADMIN_EMAIL")
	cfg.Auth.AdminPasswordHash = v.GetString("ADMIN_PASSWORD_HASH")
	// Format: key1:name1,key2:name2
	cfg.Auth.APIKeys = parseAPIKeys(v.GetString("API_KEYS"))

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")

	cfg.Clicks.Workers = v.GetInt("CLICK_WORKERS")
	cfg.Clicks.BufferSize = v.GetInt("CLICK_BUFFER")

	cfg.GeoIP.DBPath = v.GetString("GEOIP_DB_PATH")

	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Path = v.GetString("LOG_PATH")
	cfg.Log.MaxSizeMB = v.GetInt("LOG_MAX_SIZE_MB")
	cfg.Log.MaxBackups = v.GetInt("LOG_MAX_BACKUPS")
	cfg.Log.MaxAgeDays = v.GetInt("LOG_MAX_AGE_DAYS")

	if cfg.Auth.JWTSecret == "" && cfg.App.IsProduction() {
		return nil, errors.New("AUTH_JWT_SECRET is required in production")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("LINK_CACHE_TTL", "1h")

	v.SetDefault("AUTH_TOKEN_TTL", "24h")

	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("CLICK_WORKERS", 3)
	v.SetDefault("CLICK_BUFFER", 1000)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)
}

// parseAPIKeys parses comma-separated API keys in format "key1:name1,key2:name2"
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}

	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 {
			keys[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return keys
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
