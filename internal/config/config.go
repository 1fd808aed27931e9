package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	StorageBackendSupabase = "supabase"
	StorageBackendS3       = "s3"
	StorageBackendMemory   = "memory"

	ProfileBackendPostgrest = "postgrest"
	ProfileBackendPostgres  = "postgres"
)

type Config struct {
	// Supabase
	SupabaseURL            string `yaml:"supabase_url"`
	SupabasePublishableKey string `yaml:"supabase_publishable_key"`
	SupabaseJWTSecret      string `yaml:"supabase_jwt_secret"`

	// Database
	DatabaseURL    string `yaml:"database_url"`
	ProfileBackend string `yaml:"profile_backend"`
	ProfileTable   string `yaml:"profile_table"`

	// Storage
	StorageBackend     string `yaml:"storage_backend"`
	S3Region           string `yaml:"s3_region"`
	S3Endpoint         string `yaml:"s3_endpoint"`
	S3BucketPrefix     string `yaml:"s3_bucket_prefix"`
	S3PublicURL        string `yaml:"s3_public_url"`
	UploadCacheControl string `yaml:"upload_cache_control"`
	MaxUploadBytes     int64  `yaml:"max_upload_bytes"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

// Load builds the configuration from an optional YAML file named by
// CONFIG_FILE, then lets environment variables override it.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.SupabaseURL = getEnv("SUPABASE_URL", cfg.SupabaseURL)
	cfg.SupabasePublishableKey = getEnv("SUPABASE_PUBLISHABLE_KEY", cfg.SupabasePublishableKey)
	cfg.SupabaseJWTSecret = getEnv("SUPABASE_JWT_SECRET", cfg.SupabaseJWTSecret)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.ProfileBackend = getEnv("PROFILE_BACKEND", orDefault(cfg.ProfileBackend, ProfileBackendPostgrest))
	cfg.ProfileTable = getEnv("PROFILE_TABLE", orDefault(cfg.ProfileTable, "users"))

	cfg.StorageBackend = getEnv("STORAGE_BACKEND", orDefault(cfg.StorageBackend, StorageBackendSupabase))
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3BucketPrefix = getEnv("S3_BUCKET_PREFIX", cfg.S3BucketPrefix)
	cfg.S3PublicURL = getEnv("S3_PUBLIC_URL", cfg.S3PublicURL)
	cfg.UploadCacheControl = getEnv("UPLOAD_CACHE_CONTROL", orDefault(cfg.UploadCacheControl, "3600"))

	maxUpload, err := getEnvInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	cfg.MaxUploadBytes = maxUpload

	cfg.LogLevel = getEnv("LOG_LEVEL", orDefault(cfg.LogLevel, "info"))
	cfg.LogFormat = getEnv("LOG_FORMAT", orDefault(cfg.LogFormat, "text"))

	cfg.Port = getEnv("PORT", orDefault(cfg.Port, "8080"))
	cfg.Environment = getEnv("ENVIRONMENT", orDefault(cfg.Environment, "development"))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	switch c.StorageBackend {
	case StorageBackendSupabase, StorageBackendMemory:
	case StorageBackendS3:
		if c.S3PublicURL == "" && c.S3Endpoint == "" {
			return fmt.Errorf("S3_PUBLIC_URL or S3_ENDPOINT is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.ProfileBackend {
	case ProfileBackendPostgrest:
	case ProfileBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres profile backend")
		}
	default:
		return fmt.Errorf("unknown PROFILE_BACKEND %q", c.ProfileBackend)
	}

	if c.NeedsSupabase() {
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required")
		}
		if c.SupabasePublishableKey == "" {
			return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
		}
	}
	return nil
}

// NeedsSupabase reports whether any configured backend talks to Supabase.
// Sign-out always goes through Supabase Auth when a URL is present.
func (c *Config) NeedsSupabase() bool {
	return c.StorageBackend == StorageBackendSupabase || c.ProfileBackend == ProfileBackendPostgrest
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
