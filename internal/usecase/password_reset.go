package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
	"github.com/virgantara/yii2-basic-template/internal/infra/logger"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

// ErrResetUnavailable is the single failure the request flow exposes for
// unknown identifiers and delivery problems alike, so the response never
// reveals whether an account exists.
var ErrResetUnavailable = errors.New("unable to send password reset email")

// PasswordResetService runs the forgot-password flow end to end: issuing
// the emailed link, pre-validating it, and applying the new credential.
type PasswordResetService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	tokens    *TokenService
	resets    port.CredentialResetter
	mailer    port.Mailer
	events    port.EventPublisher
	validator *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// ResetRequestInput carries one reset request.
type ResetRequestInput struct {
	Email     string
	IP        string
	UserAgent string
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(cfg *config.AppConfig, users port.UserRepository, tokens *TokenService, resets port.CredentialResetter, mailer port.Mailer, events port.EventPublisher, validator *security.PasswordValidator, log *zap.Logger) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		cfg:       cfg,
		users:     users,
		tokens:    tokens,
		resets:    resets,
		mailer:    mailer,
		events:    events,
		validator: validator,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RequestReset issues a reset link to the account behind the email, if
// one exists. Every failure mode collapses into ErrResetUnavailable.
func (s *PasswordResetService) RequestReset(ctx context.Context, input ResetRequestInput) error {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return ErrResetUnavailable
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)))
			return ErrResetUnavailable
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	issued, err := s.tokens.Issue(ctx, IssueInput{
		UserID:    user.ID,
		Purpose:   domain.TokenPurposePasswordReset,
		TTL:       s.cfg.Tokens.PasswordResetTTL,
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	url := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.App.BaseURL, "/"), issued.Raw)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, url, issued.ExpiresAt); err != nil {
		s.logger.Error("reset email failed",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err))
		return ErrResetUnavailable
	}

	requestID := uuid.NewString()
	if err := s.events.PublishPasswordResetRequested(ctx, domain.PasswordResetRequestedEvent{
		EventID:           uuid.NewString(),
		UserID:            user.ID,
		RequestID:         requestID,
		RequestedAt:       s.now().UTC(),
		MaskedDestination: logger.MaskEmail(user.Email),
		ExpiresAt:         issued.ExpiresAt,
		IPAddress:         optionalString(input.IP),
	}); err != nil {
		s.logger.Warn("publish reset requested failed", zap.Error(err))
	}

	s.logger.Info("password reset link issued",
		zap.String("user_id", user.ID),
		zap.String("request_id", requestID))

	return nil
}

// ValidateToken checks the reset link without consuming it, so the form is
// only ever rendered for a redeemable token.
func (s *PasswordResetService) ValidateToken(ctx context.Context, raw string) error {
	_, err := s.tokens.Validate(ctx, raw, domain.TokenPurposePasswordReset)
	return err
}

// ResetPassword consumes the token and stores the new credential in one
// transaction. Concurrent submissions of the same link let exactly one
// through.
func (s *PasswordResetService) ResetPassword(ctx context.Context, raw, newPassword string) error {
	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("validate password: %w", err)
	}

	token, err := s.tokens.lookup(ctx, raw, domain.TokenPurposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	if err := s.resets.ConsumeAndSetPassword(ctx, token.ID, token.UserID, hash, security.PasswordAlgo, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("apply password reset: %w", err)
	}

	if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    token.UserID,
		ChangedAt: now,
	}); err != nil {
		s.logger.Warn("publish password changed failed", zap.Error(err))
	}

	s.logger.Info("password reset completed", zap.String("user_id", token.UserID))

	return nil
}
