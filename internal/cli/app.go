package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/logging"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"github.com/shinyyama/carbon-credit-backend/internal/server"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

// App is the set of services a command works with.
type App struct {
	Certs    service.CertificateService
	Verifier service.VerificationService
	Ledger   service.LedgerService
	BaseURL  string
	Close    func() error
}

type Opener func(ctx context.Context) (*App, error)

// OpenFromEnv reads .env and the environment the same way the API does.
func OpenFromEnv(ctx context.Context) (*App, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.Must(cfg.LogLevel, cfg.LogDevelopment)
	if err := document.ConfigureFonts(cfg.PDFFontFile, cfg.PDFFontBoldFile); err != nil {
		return nil, err
	}
	b, err := server.OpenBackends(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app := NewApp(b.Store, cfg, logger)
	app.Close = func() error {
		_ = logger.Sync()
		return b.Close()
	}
	return app, nil
}

// NewApp wires the registry and ledger over store.
func NewApp(store repository.KVStore, cfg *config.Config, logger *zap.Logger) *App {
	certs := service.NewCertificateService(repository.NewCertificateRepository(store), logger)
	ledger := service.NewLedgerService(repository.NewAccountRepository(store), service.LedgerConfig{
		InitialLoginBalance: cfg.InitialLoginBalance,
		SignupBalance:       cfg.SignupBalance,
		WriteRetries:        cfg.LedgerWriteRetries,
	}, service.SystemClock, logger)
	return &App{
		Certs:    certs,
		Verifier: service.NewVerificationService(certs),
		Ledger:   ledger,
		BaseURL:  cfg.VerifyBaseURL,
	}
}
