package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/logging"
	"github.com/shinyyama/carbon-credit-backend/internal/server"
	"go.uber.org/zap"
)

//go:embed fixture.yaml
var defaultFixture []byte

func main() {
	fixturePath := flag.String("fixture", "", "YAML fixture (defaults to the embedded demo data)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Must(cfg.LogLevel, cfg.LogDevelopment)
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, *fixturePath); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, fixturePath string) error {
	raw := defaultFixture
	if fixturePath != "" {
		var err error
		if raw, err = os.ReadFile(fixturePath); err != nil {
			return fmt.Errorf("read fixture: %w", err)
		}
	}
	fx, err := parseFixture(raw)
	if err != nil {
		return err
	}

	b, err := server.OpenBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	force := strings.EqualFold(os.Getenv("FORCE_SEED"), "true")
	res, err := newSeeder(b.Store, cfg, logger).apply(ctx, fx, force)
	if err != nil {
		return err
	}
	if res.Skipped {
		logger.Info("certificates already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}
	logger.Info("seeded",
		zap.Int("certificates", res.Certificates),
		zap.Int("revoked", res.Revoked),
		zap.Int("farmers", res.Farmers))
	return nil
}
