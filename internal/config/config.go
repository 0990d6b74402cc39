package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shockerli/cvt"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// File storage configuration
	StorageBackend string // local, s3
	MediaRoot      string
	S3Bucket       string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string

	// Parsing and task configuration
	DBSyncTaskDelay     time.Duration
	ParsingWorkers      int
	IndexingWorkers     int
	AutoParsingDefault  bool
	ParsingTaskRetries  int
	ParsingRetryBackoff time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string // json, text
}

// Load loads configuration from environment variables. When ENV_FILE is set,
// the file is loaded first without overriding variables already present.
func Load() (*Config, error) {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:                getEnv("PORT", "3000"),
		DBType:              getEnv("DB_TYPE", "mysql"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "3306"),
		DBDatabase:          getEnv("DB_DATABASE", ""),
		DBUser:              getEnv("DB_USER", ""),
		DBPassword:          getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:   getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthzURL:            getEnv("AUTHZ_URL", ""),
		AuthzClientID:       getEnv("AUTHZ_CLIENT_ID", ""),
		StorageBackend:      getEnv("STORAGE_BACKEND", "local"),
		MediaRoot:           getEnv("MEDIA_ROOT", "./media"),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3Region:            getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:         getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:         getEnv("S3_SECRET_ACCESS_KEY", ""),
		DBSyncTaskDelay:     time.Duration(getEnvAsInt("DB_SYNC_TASK_DELAY", 2)) * time.Second,
		ParsingWorkers:      getEnvAsInt("PARSING_WORKERS", 2),
		IndexingWorkers:     getEnvAsInt("INDEXING_WORKERS", 1),
		AutoParsingDefault:  getEnvAsBool("DOCUMENT_PARSING_AUTO_PARSING", true),
		ParsingTaskRetries:  getEnvAsInt("PARSING_TASK_RETRIES", 3),
		ParsingRetryBackoff: time.Duration(getEnvAsInt("PARSING_RETRY_DELAY", 5)) * time.Second,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and value ranges
func (cfg *Config) Validate() error {
	if cfg.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if cfg.AuthzURL == "" {
		return fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	switch cfg.StorageBackend {
	case "local":
		if cfg.MediaRoot == "" {
			return fmt.Errorf("MEDIA_ROOT is required for local storage")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
	if cfg.ParsingWorkers < 1 {
		return fmt.Errorf("PARSING_WORKERS must be at least 1")
	}
	if cfg.IndexingWorkers < 1 {
		return fmt.Errorf("INDEXING_WORKERS must be at least 1")
	}
	if cfg.DBSyncTaskDelay < 0 {
		return fmt.Errorf("DB_SYNC_TASK_DELAY must not be negative")
	}
	return nil
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
	value, err := cvt.IntE(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool accepts the usual spellings (true/false, 1/0, yes/no)
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	switch valueStr {
	case "yes", "YES", "on", "ON":
		return true
	case "no", "NO", "off", "OFF":
		return false
	}
	value, err := cvt.BoolE(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
