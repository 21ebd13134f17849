package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	PublicURL   string
	CORSOrigins []string
	LogLevel    string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Object storage
	S3Bucket  string
	AWSRegion string

	// AI providers
	AIProvider           string
	EmbeddingProvider    string
	DeepSeekAPIKey       string
	DeepSeekAPIURL       string
	DeepSeekModel        string
	OpenAIAPIKey         string
	OpenAIImageURL       string
	GeminiAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string

	// Outgoing mail
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	AdminEmail   string
}

// getter resolves one setting by its environment variable name.
type getter func(key string) string

var devDefaults = map[string]string{
	"SERVER_PORT":  "8080",
	"SERVER_HOST":  "0.0.0.0",
	"PUBLIC_URL":   "http://localhost:8080",
	"CORS_ORIGINS": "http://localhost:5173",
	"LOG_LEVEL":    "debug",
	"DB_DRIVER":    "postgres",
	"DB_HOST":      "localhost",
	"DB_PORT":      "5432",
	"DB_USER":      "postgres",
	"DB_PASSWORD":  "postgres",
	"DB_NAME":      "savorly",
	"DB_SSL_MODE":  "disable",
	"SQLITE_PATH":  "savorly.db",
	"REDIS_HOST":   "localhost",
	"REDIS_PORT":   "6379",
	"JWT_SECRET":   "development-only-jwt-secret",
	"AWS_REGION":   "us-east-1",
	"SMTP_PORT":    "587",
	"SMTP_FROM":    "noreply@savorly.app",
}

// Defaults shared by every environment; they carry no secrets.
var commonDefaults = map[string]string{
	"LOG_LEVEL":              "info",
	"DB_DRIVER":              "postgres",
	"DB_SSL_MODE":            "require",
	"AI_PROVIDER":            "deepseek",
	"EMBEDDING_PROVIDER":     "auto",
	"DEEPSEEK_API_URL":       "https://api.deepseek.com/v1/chat/completions",
	"DEEPSEEK_MODEL":         "deepseek-chat",
	"OPENAI_IMAGE_URL":       "https://api.openai.com/v1/images/generations",
	"GEMINI_MODEL":           "gemini-2.0-flash",
	"GEMINI_EMBEDDING_MODEL": "text-embedding-004",
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	var get getter
	switch env {
	case CI:
		// CI only sees what the workflow exports
		get = ciEnv
	case Production:
		get = firstOf(readSecret, os.Getenv)
	case Development, Test:
		get = withDefaults(firstOf(os.Getenv, readSecret), devDefaults)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}
	get = withDefaults(get, commonDefaults)

	cfg, err := build(get)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func build(get getter) (*Config, error) {
	cfg := &Config{
		ServerPort:           get("SERVER_PORT"),
		ServerHost:           get("SERVER_HOST"),
		PublicURL:            get("PUBLIC_URL"),
		CORSOrigins:          splitList(get("CORS_ORIGINS")),
		LogLevel:             get("LOG_LEVEL"),
		DBDriver:             strings.ToLower(get("DB_DRIVER")),
		DBHost:               get("DB_HOST"),
		DBPort:               get("DB_PORT"),
		DBUser:               get("DB_USER"),
		DBPassword:           get("DB_PASSWORD"),
		DBName:               get("DB_NAME"),
		DBSSLMode:            get("DB_SSL_MODE"),
		SQLitePath:           get("SQLITE_PATH"),
		RedisHost:            get("REDIS_HOST"),
		RedisPort:            get("REDIS_PORT"),
		RedisPassword:        get("REDIS_PASSWORD"),
		RedisURL:             get("REDIS_URL"),
		JWTSecret:            get("JWT_SECRET"),
		S3Bucket:             get("S3_BUCKET_NAME"),
		AWSRegion:            get("AWS_REGION"),
		AIProvider:           strings.ToLower(get("AI_PROVIDER")),
		EmbeddingProvider:    strings.ToLower(get("EMBEDDING_PROVIDER")),
		DeepSeekAPIKey:       get("DEEPSEEK_API_KEY"),
		DeepSeekAPIURL:       get("DEEPSEEK_API_URL"),
		DeepSeekModel:        get("DEEPSEEK_MODEL"),
		OpenAIAPIKey:         get("OPENAI_API_KEY"),
		OpenAIImageURL:       get("OPENAI_IMAGE_URL"),
		GeminiAPIKey:         get("GEMINI_API_KEY"),
		GeminiModel:          get("GEMINI_MODEL"),
		GeminiEmbeddingModel: get("GEMINI_EMBEDDING_MODEL"),
		SMTPHost:             get("SMTP_HOST"),
		SMTPPort:             get("SMTP_PORT"),
		SMTPUser:             get("SMTP_USER"),
		SMTPPassword:         get("SMTP_PASSWORD"),
		SMTPFrom:             get("SMTP_FROM"),
		AdminEmail:           get("ADMIN_EMAIL"),
	}

	if raw := get("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}

	return cfg, nil
}

// ciEnv reads plain environment variables, accepting the TEST_ prefixed
// secrets GitHub Actions exposes.
func ciEnv(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return os.Getenv("TEST_" + key)
}

func firstOf(getters ...getter) getter {
	return func(key string) string {
		for _, get := range getters {
			if v := get(key); v != "" {
				return v
			}
		}
		return ""
	}
}

func withDefaults(get getter, defaults map[string]string) getter {
	return func(key string) string {
		if v := get(key); v != "" {
			return v
		}
		return defaults[key]
	}
}

// readSecret reads a Docker secret from the secrets directory. Secret files
// use the lower-cased variable name, e.g. JWT_SECRET -> /run/secrets/jwt_secret.
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ServerHost, c.ServerPort)
}

// PostgresDSN builds a key/value DSN understood by both pgx and lib/pq.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// RedisAddr returns host:port, or "" when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	port := c.RedisPort
	if port == "" {
		port = "6379"
	}
	return net.JoinHostPort(c.RedisHost, port)
}

// SMTPEnabled reports whether outgoing mail can actually be delivered.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
