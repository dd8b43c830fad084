package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a configuration.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "\n")
}

// requirements lists the keys that must be non-empty per environment.
var requirements = map[Environment][]string{
	Development: {"JWT_SECRET"},
	Test:        {"JWT_SECRET"},
	CI:          {"JWT_SECRET", "DB_PASSWORD"},
	Production:  {"JWT_SECRET", "DB_PASSWORD", "REDIS_HOST"},
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	values := map[string]string{
		"JWT_SECRET":  cfg.JWTSecret,
		"DB_PASSWORD": cfg.DBPassword,
		"REDIS_HOST":  cfg.RedisHost + cfg.RedisURL,
	}
	for _, key := range requirements[cfg.Environment] {
		if key == "DB_PASSWORD" && cfg.DBDriver == "sqlite" {
			continue
		}
		if values[key] == "" {
			errs = append(errs, ValidationError{Field: key, Message: "is required"})
		}
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" || cfg.DBName == "" {
			errs = append(errs, ValidationError{Field: "DB_HOST", Message: "host and database name are required for postgres"})
		}
	case "sqlite":
		if cfg.DBPath == "" {
			errs = append(errs, ValidationError{Field: "DB_PATH", Message: "is required for sqlite"})
		}
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	switch cfg.StorageBackend {
	case "local":
		if cfg.MediaRoot == "" {
			errs = append(errs, ValidationError{Field: "MEDIA_ROOT", Message: "is required for local storage"})
		}
	case "s3":
		if cfg.S3BucketName == "" {
			errs = append(errs, ValidationError{Field: "S3_BUCKET_NAME", Message: "is required for s3 storage"})
		}
	default:
		errs = append(errs, ValidationError{Field: "STORAGE_BACKEND", Message: fmt.Sprintf("unsupported backend %q", cfg.StorageBackend)})
	}

	if cfg.PageSize < 1 {
		errs = append(errs, ValidationError{Field: "PAGE_SIZE", Message: "must be positive"})
	}
	if cfg.MaxPageSize < cfg.PageSize {
		errs = append(errs, ValidationError{Field: "MAX_PAGE_SIZE", Message: "must not be smaller than PAGE_SIZE"})
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{Field: "TOKEN_TTL", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
