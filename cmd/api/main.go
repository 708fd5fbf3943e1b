package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/carbon-credit-backend/internal/ai"
	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/logging"
	"github.com/shinyyama/carbon-credit-backend/internal/middleware"
	"github.com/shinyyama/carbon-credit-backend/internal/server"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

// Set with -ldflags at build time.
var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Must("info", false).Fatal("config load failed", zap.Error(err))
	}
	logger := logging.Must(cfg.LogLevel, cfg.LogDevelopment)
	defer func() { _ = logger.Sync() }()

	if err := document.ConfigureFonts(cfg.PDFFontFile, cfg.PDFFontBoldFile); err != nil {
		logger.Fatal("pdf font load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := server.OpenBackends(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logger.Warn("storage close failed", zap.Error(err))
		}
	}()

	auth, err := middleware.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		logger.Fatal("failed to init firebase auth", zap.Error(err))
	}

	var estimator service.CO2Estimator
	if cfg.CO2EstimateEnabled {
		estimator = ai.NewTreeCO2Client(cfg.GeminiTreeModel, logger)
	}

	srv := server.New(server.Deps{
		Config:    cfg,
		Store:     backends.Store,
		Auth:      auth,
		Logger:    logger,
		Publisher: backends.Publisher,
		Estimator: estimator,
		SHA:       gitSHA,
		BuildTime: buildTime,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.Bool("firebase_auth", auth.UsesFirebase()),
			zap.Bool("co2_estimate", estimator != nil))
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", zap.Error(err))
		}
		logger.Info("server stopped")
	}
}
