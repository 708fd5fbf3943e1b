package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"go.uber.org/zap"
)

const ReasonAlreadyRedeemed = "already_redeemed"

type ValidationOutcome struct {
	Valid       bool               `json:"valid"`
	Reason      string             `json:"reason,omitempty"`
	Message     string             `json:"message"`
	Credits     int64              `json:"credits"`
	NewBalance  int64              `json:"carbonBalance"`
	Certificate *model.Certificate `json:"certificate,omitempty"`
}

// CertificateValidationService lets a farmer redeem an issued certificate for
// validation credits, once per certificate.
type CertificateValidationService interface {
	Validate(ctx context.Context, uid, token string) (*ValidationOutcome, error)
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type certificateValidationService struct {
	verifier VerificationService
	ledger   LedgerService
	rnd      RandSource
	logger   *zap.Logger
}

// NewCertificateValidationService uses the process-wide generator when rnd is nil.
func NewCertificateValidationService(verifier VerificationService, ledger LedgerService, rnd RandSource, logger *zap.Logger) CertificateValidationService {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &certificateValidationService{verifier: verifier, ledger: ledger, rnd: rnd, logger: logger}
}

func (s *certificateValidationService) Validate(ctx context.Context, uid, token string) (*ValidationOutcome, error) {
	res, err := s.verifier.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		bal, err := s.ledger.Get(ctx, uid)
		if err != nil {
			return nil, err
		}
		msg := "Certificate not found."
		if res.Reason == ReasonRevoked {
			msg = "This certificate has been revoked."
		}
		return &ValidationOutcome{Reason: res.Reason, Message: msg, NewBalance: bal, Certificate: res.Certificate}, nil
	}

	cert := res.Certificate
	credits := ComputeValidationCredits(s.rnd)
	entry := model.CreditEntry{
		Activity: fmt.Sprintf("Certificate validation: %s", cert.CertificateID),
		Credits:  credits,
		Type:     model.CreditTypeOther,
	}
	bal, redeemed, err := s.ledger.Redeem(ctx, uid, cert.CertificateID, entry)
	if err != nil {
		return nil, err
	}
	if !redeemed {
		return &ValidationOutcome{
			Reason:      ReasonAlreadyRedeemed,
			Message:     "You have already validated this certificate.",
			NewBalance:  bal,
			Certificate: cert,
		}, nil
	}
	s.logger.Info("certificate redeemed",
		zap.String("uid", uid),
		zap.String("certificate_id", cert.CertificateID),
		zap.Int64("credits", credits))
	return &ValidationOutcome{
		Valid:       true,
		Message:     fmt.Sprintf("Certificate verified! You earned %d validation credits.", credits),
		Credits:     credits,
		NewBalance:  bal,
		Certificate: cert,
	}, nil
}
