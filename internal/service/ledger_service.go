package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"go.uber.org/zap"
)

type ResetReason int

const (
	ResetLogin ResetReason = iota
	ResetSignup
	ResetLogout
)

func (r ResetReason) String() string {
	switch r {
	case ResetLogin:
		return "login"
	case ResetSignup:
		return "signup"
	case ResetLogout:
		return "logout"
	}
	return "unknown"
}

type LedgerConfig struct {
	InitialLoginBalance int64
	SignupBalance       int64
	WriteRetries        int
}

// LedgerService keeps each user's carbon balance and credit history.
type LedgerService interface {
	Award(ctx context.Context, uid string, amount int64) (int64, error)
	Credit(ctx context.Context, uid string, entry model.CreditEntry) (int64, error)
	Redeem(ctx context.Context, uid, certificateID string, entry model.CreditEntry) (int64, bool, error)
	Reset(ctx context.Context, uid string, reason ResetReason) (int64, error)
	Get(ctx context.Context, uid string) (int64, error)
	Account(ctx context.Context, uid string) (*model.Account, error)
}

type ledgerService struct {
	repo   repository.AccountRepository
	cfg    LedgerConfig
	clock  Clock
	logger *zap.Logger
}

func NewLedgerService(repo repository.AccountRepository, cfg LedgerConfig, clock Clock, logger *zap.Logger) LedgerService {
	if cfg.WriteRetries < 0 {
		cfg.WriteRetries = 0
	}
	if clock == nil {
		clock = SystemClock
	}
	return &ledgerService{repo: repo, cfg: cfg, clock: clock, logger: logger}
}

func (s *ledgerService) Award(ctx context.Context, uid string, amount int64) (int64, error) {
	if err := checkAward(uid, amount); err != nil {
		return 0, err
	}
	acc, err := s.mutate(ctx, uid, "award", func(a *model.Account) error {
		return addBalance(a, amount)
	})
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Credit awards entry.Credits and appends the entry to the history in the
// same write.
func (s *ledgerService) Credit(ctx context.Context, uid string, entry model.CreditEntry) (int64, error) {
	if err := checkAward(uid, entry.Credits); err != nil {
		return 0, err
	}
	entry = s.stamp(entry)
	acc, err := s.mutate(ctx, uid, "credit", func(a *model.Account) error {
		if err := addBalance(a, entry.Credits); err != nil {
			return err
		}
		a.History = append(a.History, entry)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Redeem credits the entry unless certificateID was already redeemed by uid,
// in which case it reports false and leaves the account untouched.
func (s *ledgerService) Redeem(ctx context.Context, uid, certificateID string, entry model.CreditEntry) (int64, bool, error) {
	if err := checkAward(uid, entry.Credits); err != nil {
		return 0, false, err
	}
	entry = s.stamp(entry)
	acc, err := s.mutate(ctx, uid, "redeem", func(a *model.Account) error {
		if a.HasRedeemed(certificateID) {
			return errAlreadyRedeemed
		}
		if err := addBalance(a, entry.Credits); err != nil {
			return err
		}
		a.History = append(a.History, entry)
		a.Redeemed = append(a.Redeemed, certificateID)
		return nil
	})
	if errors.Is(err, errAlreadyRedeemed) {
		bal, err := s.Get(ctx, uid)
		return bal, false, err
	}
	if err != nil {
		return 0, false, err
	}
	return acc.Balance, true, nil
}

var errAlreadyRedeemed = errors.New("already redeemed")

func (s *ledgerService) Reset(ctx context.Context, uid string, reason ResetReason) (int64, error) {
	if strings.TrimSpace(uid) == "" {
		return 0, invalid("userId", "is required")
	}
	var value int64
	switch reason {
	case ResetLogin:
		value = s.cfg.InitialLoginBalance
	case ResetSignup:
		value = s.cfg.SignupBalance
	case ResetLogout:
		value = 0
	default:
		return 0, invalid("reason", "unknown reset reason")
	}
	acc, err := s.mutate(ctx, uid, "reset_"+reason.String(), func(a *model.Account) error {
		a.Balance = value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func (s *ledgerService) Get(ctx context.Context, uid string) (int64, error) {
	acc, err := s.Account(ctx, uid)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func (s *ledgerService) Account(ctx context.Context, uid string) (*model.Account, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, invalid("userId", "is required")
	}
	acc, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: read account: %v", ErrPersistence, err)
	}
	return acc, nil
}

// mutate retries writes that failed with repository.ErrConflict, which the
// stores return only when nothing was written. Any other failure may have
// been applied already, so it is reported without a retry.
func (s *ledgerService) mutate(ctx context.Context, uid, op string, fn func(*model.Account) error) (*model.Account, error) {
	var domainErr error
	wrapped := func(a *model.Account) error {
		domainErr = fn(a)
		return domainErr
	}
	var lastErr error
	for attempt := 0; attempt <= s.cfg.WriteRetries; attempt++ {
		domainErr = nil
		acc, err := s.repo.Mutate(ctx, uid, wrapped)
		if err == nil {
			s.logger.Debug("ledger write",
				zap.String("op", op),
				zap.String("uid", uid),
				zap.Int64("balance", acc.Balance))
			return acc, nil
		}
		if domainErr != nil && errors.Is(err, domainErr) {
			return nil, err
		}
		lastErr = err
		if !errors.Is(err, repository.ErrConflict) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("ledger write conflict, retrying",
			zap.String("op", op),
			zap.String("uid", uid),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, fmt.Errorf("%w: %s for %s: %v", ErrPersistence, op, uid, lastErr)
}

func (s *ledgerService) stamp(e model.CreditEntry) model.CreditEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = s.clock.Now()
	}
	if e.Type == "" {
		e.Type = model.CreditTypeOther
	}
	return e
}

func addBalance(a *model.Account, amount int64) error {
	if a.Balance > math.MaxInt64-amount {
		return invalid("amount", "balance would overflow")
	}
	a.Balance += amount
	return nil
}

func checkAward(uid string, amount int64) error {
	if strings.TrimSpace(uid) == "" {
		return invalid("userId", "is required")
	}
	if amount < 0 {
		return invalid("amount", "must not be negative")
	}
	return nil
}
