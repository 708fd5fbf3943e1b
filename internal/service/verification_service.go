package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

const (
	ReasonNotFound = "not_found"
	ReasonRevoked  = "revoked"
)

// VerificationResult is the public answer for a certificate lookup. Certificate
// is also set for revoked certificates so callers can show what was revoked.
type VerificationResult struct {
	Valid       bool               `json:"valid"`
	Certificate *model.Certificate `json:"certificate,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

type VerificationService interface {
	Verify(ctx context.Context, certificateID string) (VerificationResult, error)
	Resolve(ctx context.Context, token string) (VerificationResult, error)
}

type verificationService struct {
	certs CertificateService
}

func NewVerificationService(certs CertificateService) VerificationService {
	return &verificationService{certs: certs}
}

func (s *verificationService) Verify(ctx context.Context, certificateID string) (VerificationResult, error) {
	c, err := s.certs.Find(ctx, strings.TrimSpace(certificateID))
	return result(c, err)
}

// Resolve accepts a certificate ID, a QR token or a scanned QR payload.
func (s *verificationService) Resolve(ctx context.Context, token string) (VerificationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return VerificationResult{Reason: ReasonNotFound}, nil
	}
	if p, err := document.ParseVerificationPayload(token); err == nil {
		return s.Verify(ctx, p.CertificateID)
	}
	if strings.HasPrefix(strings.ToUpper(token), CertificateIDPrefix) {
		return s.Verify(ctx, strings.ToUpper(token))
	}
	c, err := s.certs.FindByQRCode(ctx, token)
	return result(c, err)
}

func result(c *model.Certificate, err error) (VerificationResult, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return VerificationResult{Valid: false, Reason: ReasonNotFound}, nil
		}
		return VerificationResult{}, err
	}
	if !c.Active() {
		return VerificationResult{Valid: false, Certificate: c, Reason: ReasonRevoked}, nil
	}
	return VerificationResult{Valid: true, Certificate: c}, nil
}
