package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/handler"
	"github.com/shinyyama/carbon-credit-backend/internal/location"
	appmw "github.com/shinyyama/carbon-credit-backend/internal/middleware"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

// Deps are the collaborators New wires together. Only Config, Store, Auth and
// Logger are required.
type Deps struct {
	Config    *config.Config
	Store     repository.KVStore
	Auth      *appmw.AuthMiddleware
	Logger    *zap.Logger
	Publisher document.Publisher
	Estimator service.CO2Estimator
	Locator   location.Provider
	Clock     service.Clock
	Rand      service.RandSource
	SHA       string
	BuildTime string
}

type Server struct {
	e      *echo.Echo
	logger *zap.Logger
}

func New(d Deps) *Server {
	cfg, logger := d.Config, d.Logger
	if d.Clock == nil {
		d.Clock = service.SystemClock
	}
	if d.Locator == nil {
		d.Locator = location.NewMockProvider(nil)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestContext)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("rid", v.RequestID),
				zap.Error(v.Error))
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.HeaderUserID, appmw.HeaderUserRole},
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.VerifyBaseURL),
	}))

	certRepo := repository.NewCertificateRepository(d.Store)
	accountRepo := repository.NewAccountRepository(d.Store)
	profileRepo := repository.NewProfileRepository(d.Store)

	certSvc := service.NewCertificateService(certRepo, logger, service.WithClock(d.Clock))
	verifySvc := service.NewVerificationService(certSvc)
	ledgerSvc := service.NewLedgerService(accountRepo, service.LedgerConfig{
		InitialLoginBalance: cfg.InitialLoginBalance,
		SignupBalance:       cfg.SignupBalance,
		WriteRetries:        cfg.LedgerWriteRetries,
	}, d.Clock, logger)
	sessionSvc := service.NewSessionService(profileRepo, ledgerSvc, service.SessionConfig{
		OfficialUsername: cfg.OfficialUsername,
		OfficialPassword: cfg.OfficialPassword,
	}, logger)
	submissionSvc := service.NewSubmissionService(ledgerSvc, d.Locator, d.Estimator, logger)
	validationSvc := service.NewCertificateValidationService(verifySvc, ledgerSvc, d.Rand, logger)
	reportSvc := service.NewReportService(profileRepo, ledgerSvc, d.Clock)

	sessionHandler := handler.NewSessionHandler(sessionSvc, logger)
	certHandler := handler.NewCertificateHandler(certSvc, d.Publisher, cfg.VerifyBaseURL, logger)
	verifyHandler := handler.NewVerificationHandler(verifySvc, logger)
	creditHandler := handler.NewCreditHandler(ledgerSvc, submissionSvc, validationSvc, reportSvc, logger)
	docHandler := handler.NewDocumentHandler()

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.SHA,
			"build_time": d.BuildTime,
		})
	})

	auth := d.Auth.RequireAuth
	official := d.Auth.RequireOfficial

	api := e.Group("/api")
	api.POST("/session/login", sessionHandler.Login)
	api.POST("/session/signup", sessionHandler.Signup)
	api.POST("/session/logout", sessionHandler.Logout, auth)
	api.GET("/me", sessionHandler.Me, auth)
	api.POST("/officials/login", sessionHandler.OfficialLogin)

	api.GET("/me/credits", creditHandler.Credits, auth)
	api.POST("/me/submissions", creditHandler.Submit, auth)
	api.POST("/me/certificate-validations", creditHandler.ValidateCertificate, auth)
	api.GET("/me/report.pdf", creditHandler.Report, auth)
	api.POST("/credits/estimate", creditHandler.Estimate)
	api.POST("/documents/extract", docHandler.Extract, auth)

	certs := api.Group("/certificates", auth, official)
	certs.POST("", certHandler.Create)
	certs.GET("", certHandler.List)
	certs.GET("/stats", certHandler.Stats)
	certs.GET("/:id", certHandler.Get)
	certs.POST("/:id/revoke", certHandler.Revoke)
	certs.GET("/:id/pdf", certHandler.PDF)
	certs.GET("/:id/text", certHandler.Text)
	certs.POST("/:id/publish", certHandler.Publish)

	api.GET("/verify", verifyHandler.ByToken)
	api.GET("/verify/:id", verifyHandler.ByID)

	return &Server{e: e, logger: logger}
}

// allowOrigin admits local development origins and the configured frontend.
func allowOrigin(frontend string) func(string) (bool, error) {
	var frontendHost string
	if u, err := url.Parse(frontend); err == nil {
		frontendHost = u.Host
	}
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		return frontendHost != "" && strings.EqualFold(u.Host, frontendHost), nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
