package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"go.uber.org/zap"
)

const maxIDAttempts = 10

type CertificateFilter struct {
	Search string
	Status string // "", "all", "active" or "revoked"
}

type CertificateStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Revoked int `json:"revoked"`
}

// CertificateService is the certificate registry used by officials.
type CertificateService interface {
	Issue(ctx context.Context, details model.CertificateDetails) (*model.Certificate, error)
	List(ctx context.Context, filter CertificateFilter) ([]model.Certificate, error)
	Find(ctx context.Context, certificateID string) (*model.Certificate, error)
	FindByQRCode(ctx context.Context, qrCode string) (*model.Certificate, error)
	Revoke(ctx context.Context, certificateID string) (*model.Certificate, error)
	Stats(ctx context.Context) (CertificateStats, error)
}

type certificateService struct {
	repo   repository.CertificateRepository
	newID  IDGenerator
	clock  Clock
	logger *zap.Logger
}

type CertificateOption func(*certificateService)

func WithIDGenerator(gen IDGenerator) CertificateOption {
	return func(s *certificateService) { s.newID = gen }
}

func WithClock(c Clock) CertificateOption {
	return func(s *certificateService) { s.clock = c }
}

func NewCertificateService(repo repository.CertificateRepository, logger *zap.Logger, opts ...CertificateOption) CertificateService {
	s := &certificateService{
		repo:   repo,
		newID:  RandomCertificateID,
		clock:  SystemClock,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *certificateService) Issue(ctx context.Context, details model.CertificateDetails) (*model.Certificate, error) {
	details = trimDetails(details)
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	var issued model.Certificate
	err := s.repo.Mutate(ctx, func(list []model.Certificate) ([]model.Certificate, error) {
		ids := make(map[string]struct{}, len(list))
		qrs := make(map[string]struct{}, len(list))
		for _, c := range list {
			ids[c.CertificateID] = struct{}{}
			qrs[c.QRCode] = struct{}{}
		}

		id, err := s.uniqueID(ids)
		if err != nil {
			return nil, err
		}
		now := s.clock.Now()
		issued = model.Certificate{
			CertificateID:      id,
			QRCode:             uniqueQRCode(now, qrs),
			CertificateDetails: details,
			DateIssued:         now,
			Status:             model.CertificateStatusActive,
		}
		return append([]model.Certificate{issued}, list...), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("certificate issued",
		zap.String("certificate_id", issued.CertificateID),
		zap.String("farmer_id", issued.FarmerID),
		zap.String("officer", issued.OfficerName))
	return &issued, nil
}

func (s *certificateService) uniqueID(taken map[string]struct{}) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", err
		}
		if _, dup := taken[id]; !dup {
			return id, nil
		}
		s.logger.Warn("certificate id collision", zap.String("certificate_id", id), zap.Int("attempt", attempt+1))
	}
	return "", ErrIDExhausted
}

// uniqueQRCode derives the token from the issuance time, moving forward one
// millisecond at a time past tokens already in use.
func uniqueQRCode(now time.Time, taken map[string]struct{}) string {
	ms := now.UnixMilli()
	for {
		qr := fmt.Sprintf("CC-%d", ms)
		if _, dup := taken[qr]; !dup {
			return qr
		}
		ms++
	}
}

func (s *certificateService) List(ctx context.Context, filter CertificateFilter) ([]model.Certificate, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	if search == "" && (status == "" || status == "all") {
		return list, nil
	}
	out := make([]model.Certificate, 0, len(list))
	for _, c := range list {
		if status != "" && status != "all" && string(c.Status) != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.FarmerName), search) &&
			!strings.Contains(strings.ToLower(c.CertificateID), search) &&
			!strings.Contains(strings.ToLower(c.FarmerID), search) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *certificateService) Find(ctx context.Context, certificateID string) (*model.Certificate, error) {
	return s.findBy(ctx, func(c *model.Certificate) bool {
		return c.CertificateID == certificateID
	})
}

func (s *certificateService) FindByQRCode(ctx context.Context, qrCode string) (*model.Certificate, error) {
	return s.findBy(ctx, func(c *model.Certificate) bool {
		return c.QRCode == qrCode
	})
}

func (s *certificateService) findBy(ctx context.Context, match func(*model.Certificate) bool) (*model.Certificate, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if match(&list[i]) {
			c := list[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// Revoke moves an active certificate to revoked. Revoking an already revoked
// certificate succeeds without writing.
func (s *certificateService) Revoke(ctx context.Context, certificateID string) (*model.Certificate, error) {
	var result model.Certificate
	err := s.repo.Mutate(ctx, func(list []model.Certificate) ([]model.Certificate, error) {
		for i := range list {
			if list[i].CertificateID != certificateID {
				continue
			}
			if list[i].Status == model.CertificateStatusRevoked {
				result = list[i]
				return nil, repository.ErrSkipWrite
			}
			list[i].Status = model.CertificateStatusRevoked
			result = list[i]
			return list, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("certificate revoked", zap.String("certificate_id", certificateID))
	return &result, nil
}

func (s *certificateService) Stats(ctx context.Context) (CertificateStats, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return CertificateStats{}, err
	}
	st := CertificateStats{Total: len(list)}
	for _, c := range list {
		switch c.Status {
		case model.CertificateStatusActive:
			st.Active++
		case model.CertificateStatusRevoked:
			st.Revoked++
		}
	}
	return st, nil
}

func trimDetails(d model.CertificateDetails) model.CertificateDetails {
	d.FarmerName = strings.TrimSpace(d.FarmerName)
	d.FarmerID = strings.TrimSpace(d.FarmerID)
	d.LandID = strings.TrimSpace(d.LandID)
	d.CropType = strings.TrimSpace(d.CropType)
	d.LandArea = strings.TrimSpace(d.LandArea)
	d.TreesPlanted = strings.TrimSpace(d.TreesPlanted)
	d.FertilizerUse = strings.TrimSpace(d.FertilizerUse)
	d.FertilizerAmount = strings.TrimSpace(d.FertilizerAmount)
	d.IrrigationPractices = strings.TrimSpace(d.IrrigationPractices)
	d.VisitDate = strings.TrimSpace(d.VisitDate)
	d.OfficerName = strings.TrimSpace(d.OfficerName)
	d.Notes = strings.TrimSpace(d.Notes)
	return d
}

func validateDetails(d model.CertificateDetails) error {
	required := []struct {
		field string
		value string
	}{
		{"farmerName", d.FarmerName},
		{"farmerId", d.FarmerID},
		{"landId", d.LandID},
		{"cropType", d.CropType},
		{"visitDate", d.VisitDate},
		{"officerName", d.OfficerName},
	}
	for _, r := range required {
		if r.value == "" {
			return invalid(r.field, "is required")
		}
	}
	// These three are encoded one per line in the QR payload.
	for _, r := range required[:3] {
		if strings.ContainsAny(r.value, "\r\n") {
			return invalid(r.field, "must be a single line")
		}
	}
	if _, err := time.Parse("2006-01-02", d.VisitDate); err != nil {
		return invalid("visitDate", "must be YYYY-MM-DD")
	}
	return nil
}
