package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerHost  string
	ServerPort  string
	CORSOrigins []string

	// Database configuration
	DBDriver      string // postgres or sqlite
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBPath        string
	MigrationsDir string
	AutoMigrate   bool

	// Redis configuration. Redis is optional: without it rate limiting and
	// token revocation are disabled.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Auth configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Pagination
	PageSize    int
	MaxPageSize int

	// Media storage
	StorageBackend string // local or s3
	MediaRoot      string
	MediaURL       string
	S3BucketName   string
	AWSRegion      string

	// Limits
	RecipeCreationLimit int

	// Logging
	LogLevel  string
	LogFormat string
}

// source resolves a configuration key such as "DB_HOST" to its raw value.
type source func(key string) string

// LoadConfig creates a new Config from environment variables and Docker secrets.
// Development and test read an optional .env file first; production prefers
// secrets over plain environment variables; CI only reads the environment.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	var get source
	switch env {
	case CI:
		get = fromEnv
	case Development, Test:
		if err := loadDotEnv(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		get = firstOf(fromEnv, readSecret)
	case Production:
		get = firstOf(readSecret, fromEnv)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	cfg, err := build(env, get)
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func build(env Environment, get source) (*Config, error) {
	cfg := &Config{
		Environment:    env,
		ServerHost:     withDefault(get("SERVER_HOST"), "0.0.0.0"),
		ServerPort:     withDefault(get("SERVER_PORT"), "8000"),
		CORSOrigins:    splitList(withDefault(get("CORS_ORIGINS"), "http://localhost:3000")),
		DBDriver:       strings.ToLower(withDefault(get("DB_DRIVER"), "postgres")),
		DBHost:         withDefault(get("DB_HOST"), "localhost"),
		DBPort:         withDefault(get("DB_PORT"), "5432"),
		DBUser:         withDefault(get("DB_USER"), "postgres"),
		DBPassword:     get("DB_PASSWORD"),
		DBName:         withDefault(get("DB_NAME"), "foodgram"),
		DBSSLMode:      withDefault(get("DB_SSL_MODE"), "disable"),
		DBPath:         withDefault(get("DB_PATH"), "foodgram.db"),
		MigrationsDir:  withDefault(get("MIGRATIONS_DIR"), "migrations"),
		RedisHost:      get("REDIS_HOST"),
		RedisPort:      withDefault(get("REDIS_PORT"), "6379"),
		RedisPassword:  get("REDIS_PASSWORD"),
		RedisURL:       get("REDIS_URL"),
		JWTSecret:      get("JWT_SECRET"),
		StorageBackend: strings.ToLower(withDefault(get("STORAGE_BACKEND"), "local")),
		MediaRoot:      withDefault(get("MEDIA_ROOT"), "media"),
		MediaURL:       withDefault(get("MEDIA_URL"), "/media/"),
		S3BucketName:   get("S3_BUCKET_NAME"),
		AWSRegion:      get("AWS_REGION"),
		LogLevel:       withDefault(get("LOG_LEVEL"), "info"),
		LogFormat:      get("LOG_FORMAT"),
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if env == Development {
			cfg.LogFormat = "text"
		}
	}

	var err error
	if cfg.AutoMigrate, err = parseBool(get("AUTO_MIGRATE"), env != Production); err != nil {
		return nil, fmt.Errorf("AUTO_MIGRATE: %w", err)
	}
	if cfg.RedisDB, err = parseInt(get("REDIS_DB"), 0); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.PageSize, err = parseInt(get("PAGE_SIZE"), 6); err != nil {
		return nil, fmt.Errorf("PAGE_SIZE: %w", err)
	}
	if cfg.MaxPageSize, err = parseInt(get("MAX_PAGE_SIZE"), 100); err != nil {
		return nil, fmt.Errorf("MAX_PAGE_SIZE: %w", err)
	}
	if cfg.RecipeCreationLimit, err = parseInt(get("RECIPE_CREATION_LIMIT"), 20); err != nil {
		return nil, fmt.Errorf("RECIPE_CREATION_LIMIT: %w", err)
	}
	if cfg.TokenTTL, err = parseDuration(get("TOKEN_TTL"), 24*time.Hour); err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}

	return cfg, nil
}

// PostgresDSN returns the key/value connection string for the configured database.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// RedisEnabled reports whether a Redis server has been configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

func fromEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// readSecret reads a Docker secret from the secrets directory. Secret files
// use the lower-cased key name, e.g. DB_PASSWORD is read from db_password.
func readSecret(key string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, strings.ToLower(key))
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func firstOf(sources ...source) source {
	return func(key string) string {
		for _, s := range sources {
			if v := s(key); v != "" {
				return v
			}
		}
		return ""
	}
}

func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}

func parseBool(value string, def bool) (bool, error) {
	if value == "" {
		return def, nil
	}
	return strconv.ParseBool(value)
}

func parseDuration(value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	return time.ParseDuration(value)
}
