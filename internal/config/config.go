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
)

const (
	AuthModeForward           = "forward"
	AuthModeClientCredentials = "client_credentials"

	DraftStoreMemory = "memory"
	DraftStoreRedis  = "redis"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	HRISAPI  HRISAPIConfig
	Draft    DraftConfig
	Redis    RedisConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
	Timezone    string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// HRISAPIConfig describes the upstream attendance API and how to
// authenticate against it.
type HRISAPIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	AuthMode     string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

type DraftConfig struct {
	Store         string
	TTL           time.Duration
	SweepSchedule string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Timezone:    getEnv("APP_TIMEZONE", "Local"),
	}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMigrate, err := strconv.ParseBool(getEnv("DB_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIGRATE: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_correction"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		Migrate:  dbMigrate,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// HRIS attendance API
	apiTimeout, err := time.ParseDuration(getEnv("HRIS_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HRIS_API_TIMEOUT: %w", err)
	}

	config.HRISAPI = HRISAPIConfig{
		BaseURL:      getEnv("HRIS_API_BASE_URL", ""),
		Timeout:      apiTimeout,
		AuthMode:     getEnv("HRIS_API_AUTH_MODE", AuthModeForward),
		ClientID:     getEnv("HRIS_API_CLIENT_ID", ""),
		ClientSecret: getEnv("HRIS_API_CLIENT_SECRET", ""),
		TokenURL:     getEnv("HRIS_API_TOKEN_URL", ""),
		Scopes:       getEnvSlice("HRIS_API_SCOPES"),
	}

	// Draft store
	draftTTL, err := time.ParseDuration(getEnv("DRAFT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DRAFT_TTL: %w", err)
	}

	config.Draft = DraftConfig{
		Store:         getEnv("DRAFT_STORE", DraftStoreMemory),
		TTL:           draftTTL,
		SweepSchedule: getEnv("DRAFT_SWEEP_SCHEDULE", "@every 15m"),
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.HRISAPI.BaseURL == "" {
		return fmt.Errorf("HRIS_API_BASE_URL is required")
	}
	if c.HRISAPI.Timeout <= 0 {
		return fmt.Errorf("HRIS_API_TIMEOUT must be positive")
	}

	switch c.HRISAPI.AuthMode {
	case AuthModeForward:
	case AuthModeClientCredentials:
		if c.HRISAPI.ClientID == "" || c.HRISAPI.ClientSecret == "" {
			return fmt.Errorf("HRIS_API_CLIENT_ID and HRIS_API_CLIENT_SECRET are required in %s mode", AuthModeClientCredentials)
		}
		if c.HRISAPI.TokenURL == "" {
			return fmt.Errorf("HRIS_API_TOKEN_URL is required in %s mode", AuthModeClientCredentials)
		}
	default:
		return fmt.Errorf("HRIS_API_AUTH_MODE must be one of: %s, %s", AuthModeForward, AuthModeClientCredentials)
	}

	switch c.Draft.Store {
	case DraftStoreMemory:
	case DraftStoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when DRAFT_STORE is %s", DraftStoreRedis)
		}
	default:
		return fmt.Errorf("DRAFT_STORE must be one of: %s, %s", DraftStoreMemory, DraftStoreRedis)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	return nil
}

// Location is the timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
