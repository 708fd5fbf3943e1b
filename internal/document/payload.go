package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

var ErrInvalidPayload = errors.New("invalid verification payload")

const (
	labelFarmer        = "Farmer"
	labelFarmerID      = "Farmer ID"
	labelLandID        = "Land ID"
	labelCertificateID = "Certificate ID"
)

// VerificationPayload is the text encoded in a certificate's QR code.
type VerificationPayload struct {
	FarmerName    string
	FarmerID      string
	LandID        string
	CertificateID string
}

func PayloadFor(c *model.Certificate) VerificationPayload {
	return VerificationPayload{
		FarmerName:    c.FarmerName,
		FarmerID:      c.FarmerID,
		LandID:        c.LandID,
		CertificateID: c.CertificateID,
	}
}

func (p VerificationPayload) String() string {
	return fmt.Sprintf("%s: %s\n%s: %s\n%s: %s\n%s: %s",
		labelFarmer, p.FarmerName,
		labelFarmerID, p.FarmerID,
		labelLandID, p.LandID,
		labelCertificateID, p.CertificateID)
}

// ParseVerificationPayload reads the "Label: value" lines written by String.
// Unknown lines are ignored; the certificate ID is mandatory.
func ParseVerificationPayload(s string) (VerificationPayload, error) {
	var p VerificationPayload
	seen := 0
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		label, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch strings.TrimSpace(label) {
		case labelFarmer:
			p.FarmerName = value
		case labelFarmerID:
			p.FarmerID = value
		case labelLandID:
			p.LandID = value
		case labelCertificateID:
			p.CertificateID = strings.TrimSpace(value)
		default:
			continue
		}
		seen++
	}
	if p.CertificateID == "" || seen < 2 {
		return VerificationPayload{}, ErrInvalidPayload
	}
	return p, nil
}
