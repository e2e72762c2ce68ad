package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/logger"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown identifiers, wrong passwords and
	// disabled accounts alike; the login page never says which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountPending indicates correct credentials on an account that
	// has not confirmed its email yet. No session is established.
	ErrAccountPending = errors.New("account pending activation")
)

// AuthService verifies credentials and establishes sessions.
type AuthService struct {
	users    port.UserRepository
	sessions *SessionService
	logger   *zap.Logger
	now      func() time.Time
}

// LoginInput carries one login attempt.
type LoginInput struct {
	Identifier string
	Password   string
	ByEmail    bool
	Remember   bool
	IP         string
	UserAgent  string
}

// LoginResult reports the authenticated user and their fresh session.
type LoginResult struct {
	User    domain.User
	Session StartedSession
}

// NewAuthService constructs an AuthService.
func NewAuthService(users port.UserRepository, sessions *SessionService, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login checks the credentials and, for active accounts, starts a session
// and bumps last_login. Pending accounts fail with ErrAccountPending even
// on a correct password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.findUser(ctx, identifier, input.ByEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if user.IsPending() {
		return nil, ErrAccountPending
	}
	if !user.IsActive() {
		return nil, ErrInvalidCredentials
	}

	started, err := s.sessions.Start(ctx, user.ID, input.IP, input.UserAgent, input.Remember)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// The session is already live; losing the timestamp is not worth
		// failing the login over.
		s.logger.Warn("update last login failed",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}
	user.LastLogin = &now

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID),
		zap.String("ip", logger.MaskIP(input.IP)))

	return &LoginResult{User: *user, Session: *started}, nil
}

// Profile loads the account behind an authenticated session.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *AuthService) findUser(ctx context.Context, identifier string, byEmail bool) (*domain.User, error) {
	if byEmail {
		return s.users.GetByEmail(ctx, identifier)
	}
	return s.users.GetByUsername(ctx, identifier)
}
