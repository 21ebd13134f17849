package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/savorly/backend/config"
	"github.com/pageza/savorly/backend/internal/api"
	"github.com/pageza/savorly/backend/internal/app"
	"github.com/pageza/savorly/backend/internal/logging"
	"github.com/pageza/savorly/backend/internal/server"
)

func main() {
	env := config.GetEnvironment()
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Must("info", string(env)).Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := logging.Must(cfg.LogLevel, string(env))
	defer func() { _ = logger.Sync() }()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	srv := server.New(cfg.Addr(), api.NewRouter(a.Deps), logger)
	logger.Info("Starting server", zap.String("env", string(env)), zap.String("addr", cfg.Addr()))
	if err := srv.Start(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
		os.Exit(1)
	}
}
