package main

import (
	"context"
	"fmt"

	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	Certificates []seedCertificate `yaml:"certificates"`
	Farmers      []seedFarmer      `yaml:"farmers"`
}

type seedCertificate struct {
	model.CertificateDetails `yaml:",inline"`
	Revoked                  bool `yaml:"revoked"`
}

type seedFarmer struct {
	Email   string       `yaml:"email"`
	Name    string       `yaml:"name"`
	Credits []seedCredit `yaml:"credits"`
}

type seedCredit struct {
	Activity string           `yaml:"activity"`
	Credits  int64            `yaml:"credits"`
	Type     model.CreditType `yaml:"type"`
}

func parseFixture(raw []byte) (*fixture, error) {
	var fx fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

type seedResult struct {
	Skipped      bool
	Certificates int
	Revoked      int
	Farmers      int
}

type seeder struct {
	certs    service.CertificateService
	sessions service.SessionService
	ledger   service.LedgerService
}

func newSeeder(store repository.KVStore, cfg *config.Config, logger *zap.Logger) *seeder {
	ledger := service.NewLedgerService(repository.NewAccountRepository(store), service.LedgerConfig{
		InitialLoginBalance: cfg.InitialLoginBalance,
		SignupBalance:       cfg.SignupBalance,
		WriteRetries:        cfg.LedgerWriteRetries,
	}, service.SystemClock, logger)
	return &seeder{
		certs:    service.NewCertificateService(repository.NewCertificateRepository(store), logger),
		sessions: service.NewSessionService(repository.NewProfileRepository(store), ledger, service.SessionConfig{}, logger),
		ledger:   ledger,
	}
}

// apply issues every fixture certificate and signs up the demo farmers. It
// does nothing when certificates already exist unless force is set.
func (s *seeder) apply(ctx context.Context, fx *fixture, force bool) (seedResult, error) {
	existing, err := s.certs.Stats(ctx)
	if err != nil {
		return seedResult{}, fmt.Errorf("count certificates: %w", err)
	}
	if existing.Total > 0 && !force {
		return seedResult{Skipped: true}, nil
	}

	var res seedResult
	for _, sc := range fx.Certificates {
		c, err := s.certs.Issue(ctx, sc.CertificateDetails)
		if err != nil {
			return res, fmt.Errorf("issue certificate for %q: %w", sc.FarmerName, err)
		}
		res.Certificates++
		if sc.Revoked {
			if _, err := s.certs.Revoke(ctx, c.CertificateID); err != nil {
				return res, fmt.Errorf("revoke %s: %w", c.CertificateID, err)
			}
			res.Revoked++
		}
	}
	for _, f := range fx.Farmers {
		sess, err := s.sessions.Signup(ctx, f.Email, "seed", f.Name)
		if err != nil {
			return res, fmt.Errorf("signup %s: %w", f.Email, err)
		}
		for _, cr := range f.Credits {
			entry := model.CreditEntry{Activity: cr.Activity, Credits: cr.Credits, Type: cr.Type}
			if _, err := s.ledger.Credit(ctx, sess.User.ID, entry); err != nil {
				return res, fmt.Errorf("credit %s: %w", f.Email, err)
			}
		}
		res.Farmers++
	}
	return res, nil
}
