package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"go.uber.org/zap"
)

const RoleOfficial = "official"

type SessionConfig struct {
	OfficialUsername string
	OfficialPassword string
}

type Session struct {
	User    model.UserProfile `json:"user"`
	Balance int64             `json:"carbonBalance"`
}

// SessionService is the demo sign-in flow: any email/password pair is
// accepted, and the balance is reset on every login or signup.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Signup(ctx context.Context, email, password, name string) (*Session, error)
	Logout(ctx context.Context, uid string) error
	Current(ctx context.Context, uid string) (*Session, error)
	OfficialLogin(ctx context.Context, username, password string) (*model.OfficialProfile, error)
}

type sessionService struct {
	profiles repository.ProfileRepository
	ledger   LedgerService
	cfg      SessionConfig
	logger   *zap.Logger
}

func NewSessionService(profiles repository.ProfileRepository, ledger LedgerService, cfg SessionConfig, logger *zap.Logger) SessionService {
	return &sessionService{profiles: profiles, ledger: ledger, cfg: cfg, logger: logger}
}

// UserIDForEmail derives a stable user id from the email address.
func UserIDForEmail(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String()
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return nil, err
	}
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	return s.start(ctx, model.UserProfile{ID: UserIDForEmail(email), Email: email, Name: name}, ResetLogin)
}

func (s *sessionService) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	return s.start(ctx, model.UserProfile{ID: UserIDForEmail(email), Email: email, Name: name}, ResetSignup)
}

func (s *sessionService) start(ctx context.Context, p model.UserProfile, reason ResetReason) (*Session, error) {
	if err := s.profiles.PutUser(ctx, &p); err != nil {
		return nil, err
	}
	bal, err := s.ledger.Reset(ctx, p.ID, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session started", zap.String("uid", p.ID), zap.Stringer("reason", reason))
	return &Session{User: p, Balance: bal}, nil
}

func (s *sessionService) Logout(ctx context.Context, uid string) error {
	if _, err := s.ledger.Reset(ctx, uid, ResetLogout); err != nil {
		return err
	}
	if err := s.profiles.DeleteUser(ctx, uid); err != nil {
		return err
	}
	if err := s.profiles.DeleteOfficial(ctx, uid); err != nil {
		return err
	}
	s.logger.Info("session ended", zap.String("uid", uid))
	return nil
}

func (s *sessionService) Current(ctx context.Context, uid string) (*Session, error) {
	p, err := s.profiles.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	bal, err := s.ledger.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Session{User: *p, Balance: bal}, nil
}

func (s *sessionService) OfficialLogin(ctx context.Context, username, password string) (*model.OfficialProfile, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.OfficialUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.OfficialPassword)) == 1
	if s.cfg.OfficialUsername == "" || !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	p := &model.OfficialProfile{
		ID:       "official-1",
		Username: username,
		Name:     "Government Official",
		Role:     RoleOfficial,
	}
	if err := s.profiles.PutOfficial(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("official signed in", zap.String("username", username))
	return p, nil
}

func checkCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", invalid("email", "must be an email address")
	}
	if password == "" {
		return "", invalid("password", "is required")
	}
	return email, nil
}
