package config

import (
	"fmt"
	"strconv"
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

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Has reports whether field failed validation.
func (errs ValidationErrors) Has(field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

const minProductionSecretLen = 32

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		add("SERVER_PORT", "must be a port number, got %q", cfg.ServerPort)
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			add("DB_HOST", "is required for postgres")
		}
		if cfg.DBName == "" {
			add("DB_NAME", "is required for postgres")
		}
		if cfg.DBUser == "" {
			add("DB_USER", "is required for postgres")
		}
		if env == Production || env == CI {
			if cfg.DBPassword == "" {
				add("DB_PASSWORD", "is required in %s", env)
			}
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required for sqlite")
		}
		if env == Production {
			add("DB_DRIVER", "sqlite is not supported in production")
		}
	default:
		add("DB_DRIVER", "unknown driver %q", cfg.DBDriver)
	}

	switch {
	case cfg.JWTSecret == "":
		add("JWT_SECRET", "is required")
	case env == Production && len(cfg.JWTSecret) < minProductionSecretLen:
		add("JWT_SECRET", "must be at least %d characters in production", minProductionSecretLen)
	}

	switch cfg.AIProvider {
	case "deepseek", "gemini":
	default:
		add("AI_PROVIDER", "unknown provider %q", cfg.AIProvider)
	}

	switch cfg.EmbeddingProvider {
	case "auto", "gemini", "hash":
	default:
		add("EMBEDDING_PROVIDER", "unknown provider %q", cfg.EmbeddingProvider)
	}

	if cfg.SMTPHost != "" {
		if _, err := strconv.Atoi(cfg.SMTPPort); err != nil {
			add("SMTP_PORT", "must be a port number, got %q", cfg.SMTPPort)
		}
	}

	if cfg.RedisDB < 0 {
		add("REDIS_DB", "must not be negative")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
