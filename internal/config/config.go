package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port           string
	RequestTimeout time.Duration
	LogLevel       string

	// Database configuration
	DBType               string // mysql, postgres, sqlite, sqlite3, sqlserver
	DBHost               string
	DBPort               string
	DBAppDatabase        string
	DBAppUser            string
	DBAppPassword        string
	DBAppConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Registry configuration
	AdminEmails []string
	PeopleTable string
	SchemaFile  string

	// Resolution and collaborators
	ResolveConcurrency int
	StorageBaseURL     string
	StorageSigningKey  string
	StorageURLTTL      time.Duration
	RedisURL           string
	NotifyChannel      string
}

// Load loads configuration from environment variables, after seeding them
// from ENV_FILE (or .env) when present.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		RequestTimeout:       getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DBType:               getEnv("DB_TYPE", "mysql"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBAppDatabase:        getEnv("DB_DATABASE", ""),
		DBAppUser:            getEnv("DB_APP_USER", ""),
		DBAppPassword:        getEnv("DB_APP_PASSWORD", ""),
		DBAppConnectionLimit: getEnvAsInt("DB_APP_CONNECTION_LIMIT", 5),
		AuthzURL:             getEnv("AUTHZ_URL", ""),
		AuthzClientID:        getEnv("AUTHZ_CLIENT_ID", ""),
		AdminEmails:          getEnvAsList("ADMIN_EMAILS"),
		PeopleTable:          getEnv("PEOPLE_TABLE", "contacts"),
		SchemaFile:           getEnv("SCHEMA_FILE", ""),
		ResolveConcurrency:   getEnvAsInt("RESOLVE_CONCURRENCY", 4),
		StorageBaseURL:       getEnv("STORAGE_BASE_URL", ""),
		StorageSigningKey:    getEnv("STORAGE_SIGNING_KEY", ""),
		StorageURLTTL:        getEnvAsDuration("STORAGE_URL_TTL", 15*time.Minute),
		RedisURL:             getEnv("REDIS_URL", ""),
		NotifyChannel:        getEnv("NOTIFY_CHANNEL", "admin:mentions"),
	}

	// Validate required fields
	if cfg.DBAppDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBAppUser == "" && !cfg.IsSQLite() {
		return nil, fmt.Errorf("DB_APP_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	if len(cfg.AdminEmails) == 0 {
		return nil, fmt.Errorf("ADMIN_EMAILS is required")
	}
	if cfg.StorageBaseURL != "" && cfg.StorageSigningKey == "" {
		return nil, fmt.Errorf("STORAGE_SIGNING_KEY is required with STORAGE_BASE_URL")
	}
	if cfg.ResolveConcurrency < 1 {
		cfg.ResolveConcurrency = 1
	}

	return cfg, nil
}

// IsSQLite reports whether the configured database is a SQLite file.
func (c *Config) IsSQLite() bool {
	return c.DBType == "sqlite" || c.DBType == "sqlite3"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go duration strings ("15s", "2m")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping empty items
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
