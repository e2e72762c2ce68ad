package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
	"github.com/virgantara/yii2-basic-template/internal/infra/telemetry"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

var (
	// ErrTokenMalformed indicates the raw value does not even parse as a
	// token; callers reject the request outright instead of rendering a
	// business failure.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid indicates an unknown, already used, revoked, or
	// wrong-purpose token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the token elapsed its validity window.
	ErrTokenExpired = errors.New("token expired")
)

// TokenService issues and redeems single-use action tokens for the email
// flows (account activation, password reset).
type TokenService struct {
	tokens  port.TokenRepository
	users   port.UserRepository
	logger  *zap.Logger
	metrics *telemetry.Provider
	now     func() time.Time
}

// IssueInput carries the request context recorded alongside a new token.
type IssueInput struct {
	UserID    string
	Purpose   domain.TokenPurpose
	TTL       time.Duration
	IP        string
	UserAgent string
}

// IssueResult returns the raw token (never persisted) and its window.
type IssueResult struct {
	Raw       string
	TokenID   string
	ExpiresAt time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(tokens port.TokenRepository, users port.UserRepository, metrics *telemetry.Provider, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		tokens:  tokens,
		users:   users,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *TokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Issue mints a fresh token for the user and purpose. Any prior live token
// of the same purpose is revoked first, so at most one link per flow is
// redeemable at a time.
func (s *TokenService) Issue(ctx context.Context, input IssueInput) (*IssueResult, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if !input.Purpose.Valid() {
		return nil, fmt.Errorf("unknown token purpose %q", input.Purpose)
	}
	if input.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}

	now := s.now().UTC()

	revoked, err := s.tokens.RevokeLiveForUser(ctx, input.UserID, input.Purpose, now)
	if err != nil {
		return nil, fmt.Errorf("revoke prior tokens: %w", err)
	}
	if revoked > 0 {
		s.logger.Debug("superseded live tokens",
			zap.String("purpose", string(input.Purpose)),
			zap.Int("count", revoked))
	}

	raw, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	token := domain.ActionToken{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		TokenHash: security.HashToken(raw),
		Purpose:   input.Purpose,
		IP:        optionalString(input.IP),
		UserAgent: optionalString(input.UserAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(input.TTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	s.metrics.TokenIssued(string(input.Purpose))

	return &IssueResult{Raw: raw, TokenID: token.ID, ExpiresAt: token.ExpiresAt}, nil
}

// Validate checks the raw token without consuming it. Used on GET requests
// so the reset form is only ever rendered for a redeemable token.
func (s *TokenService) Validate(ctx context.Context, raw string, purpose domain.TokenPurpose) (string, error) {
	token, err := s.lookup(ctx, raw, purpose)
	if err != nil {
		return "", err
	}
	return token.UserID, nil
}

// Consume validates and then atomically marks the token used. Under
// concurrent redemption exactly one caller succeeds; the rest observe
// ErrTokenInvalid.
func (s *TokenService) Consume(ctx context.Context, raw string, purpose domain.TokenPurpose) (string, error) {
	token, err := s.lookup(ctx, raw, purpose)
	if err != nil {
		return "", err
	}

	if err := s.tokens.Consume(ctx, token.ID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("consume token: %w", err)
	}

	s.metrics.TokenConsumed(string(purpose))

	return token.UserID, nil
}

func (s *TokenService) lookup(ctx context.Context, raw string, purpose domain.TokenPurpose) (*domain.ActionToken, error) {
	if !security.WellFormedToken(raw) {
		return nil, ErrTokenMalformed
	}

	token, err := s.tokens.GetByHash(ctx, security.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("lookup token: %w", err)
	}

	if token.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	if token.UsedAt != nil || token.RevokedAt != nil {
		return nil, ErrTokenInvalid
	}
	if token.IsExpired(s.now().UTC()) {
		return nil, ErrTokenExpired
	}

	if _, err := s.users.GetByID(ctx, token.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("lookup token owner: %w", err)
	}

	return token, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
