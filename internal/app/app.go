// Package app assembles the services from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/config"
	"github.com/pageza/savorly/backend/internal/api"
	"github.com/pageza/savorly/backend/internal/database"
	"github.com/pageza/savorly/backend/internal/service"
	"github.com/pageza/savorly/backend/migrations"
)

// App owns the connections opened for the API.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Deps   api.Deps
	logger *zap.Logger
}

// New connects to the database, applies migrations and builds every service.
// Redis, object storage and the AI providers are optional; a missing one
// only disables the features that need it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Redis unavailable, drafts, chat and render caching are disabled", zap.Error(err))
		redisClient = nil
	}

	deps, err := BuildDeps(ctx, cfg, db, redisClient, logger)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, DB: db, Redis: redisClient, Deps: deps, logger: logger}, nil
}

// BuildDeps wires the services over already opened connections.
func BuildDeps(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) (api.Deps, error) {
	embedder, err := NewEmbedder(ctx, cfg, logger)
	if err != nil {
		return api.Deps{}, err
	}
	generator, err := NewGenerator(ctx, cfg, logger)
	if err != nil {
		return api.Deps{}, err
	}

	var uploader service.ObjectUploader
	if cfg.S3Bucket != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			logger.Warn("S3 unavailable, image uploads are disabled", zap.Error(err))
		} else {
			uploader = s3cfg
		}
	}

	mailer := service.NewEmailService(service.EmailConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUser,
		Password:   cfg.SMTPPassword,
		From:       cfg.SMTPFrom,
		AdminEmail: cfg.AdminEmail,
	}, logger)

	recipes := service.NewRecipeService(db, embedder, service.NewRenderCache(redisClient, logger), logger)
	return api.Deps{
		DB:          db,
		Redis:       redisClient,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        service.NewAuthService(db, cfg.JWTSecret, logger),
		Recipes:     recipes,
		LLM:         service.NewLLMService(generator, redisClient, recipes, logger),
		Chat:        service.NewChatService(generator, redisClient, logger),
		Images:      service.NewImageService(cfg.OpenAIAPIKey, cfg.OpenAIImageURL, uploader, logger),
		Products:    service.NewProductService(db, logger),
		Newsletter:  service.NewNewsletterService(db, mailer, cfg.PublicURL, logger),
		Feedback:    service.NewFeedbackService(db, mailer, logger),
		Dashboard:   service.NewDashboardService(db),
	}, nil
}

// NewEmbedder picks the embedding provider. "auto" uses Gemini when a key is
// configured and the local hash embedder otherwise.
func NewEmbedder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "auto" || provider == "" {
		provider = "hash"
		if cfg.GeminiAPIKey != "" {
			provider = "gemini"
		}
	}

	switch provider {
	case "hash":
		logger.Info("Using hash embeddings")
		return service.HashEmbedder{}, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("EMBEDDING_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		client, err := service.NewGenAIClient(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		logger.Info("Using Gemini embeddings", zap.String("model", cfg.GeminiEmbeddingModel))
		return service.NewGenAIEmbedder(client, cfg.GeminiEmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// NewGenerator returns the configured text model, or nil when its API key is
// missing.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.TextGenerator, error) {
	switch cfg.AIProvider {
	case "deepseek":
		if cfg.DeepSeekAPIKey == "" {
			break
		}
		return service.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekAPIURL, cfg.DeepSeekModel, logger), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			break
		}
		client, err := service.NewGenAIClient(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		return service.NewGeminiClient(client, cfg.GeminiModel), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
	logger.Warn("No API key for AI provider, recipe generation and chat are disabled", zap.String("provider", cfg.AIProvider))
	return nil, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}
