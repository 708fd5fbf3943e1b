package service

import (
	"context"
	"errors"

	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
)

type ReportService interface {
	MRVReport(ctx context.Context, uid string) (*document.Report, error)
}

type reportService struct {
	profiles repository.ProfileRepository
	ledger   LedgerService
	clock    Clock
}

func NewReportService(profiles repository.ProfileRepository, ledger LedgerService, clock Clock) ReportService {
	if clock == nil {
		clock = SystemClock
	}
	return &reportService{profiles: profiles, ledger: ledger, clock: clock}
}

func (s *reportService) MRVReport(ctx context.Context, uid string) (*document.Report, error) {
	p, err := s.profiles.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	acc, err := s.ledger.Account(ctx, uid)
	if err != nil {
		return nil, err
	}
	totals := make(map[model.CreditType]int64, 3)
	for _, e := range acc.History {
		totals[e.Type] += e.Credits
	}
	return &document.Report{
		UserName:    p.Name,
		Email:       p.Email,
		Balance:     acc.Balance,
		Totals:      totals,
		Entries:     acc.History,
		GeneratedAt: s.clock.Now(),
	}, nil
}
