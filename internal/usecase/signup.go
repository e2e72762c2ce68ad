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

var (
	// ErrSignupTaken indicates the username or email is already registered.
	ErrSignupTaken = errors.New("username or email already taken")
	// ErrActivationSendFailed indicates the account was created but the
	// activation email could not be delivered. The account stays pending.
	ErrActivationSendFailed = errors.New("activation email delivery failed")
)

// SignupService registers accounts and redeems activation links.
type SignupService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	tokens    *TokenService
	sessions  *SessionService
	mailer    port.Mailer
	events    port.EventPublisher
	validator *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// SignupInput carries one registration attempt.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// SignupResult reports the created account. Session is non-nil only on the
// auto-login path (activation not required).
type SignupResult struct {
	User             domain.User
	Session          *StartedSession
	NeedsActivation  bool
	ActivationSentTo string
}

// NewSignupService constructs a SignupService.
func NewSignupService(cfg *config.AppConfig, users port.UserRepository, tokens *TokenService, sessions *SessionService, mailer port.Mailer, events port.EventPublisher, validator *security.PasswordValidator, log *zap.Logger) *SignupService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SignupService{
		cfg:       cfg,
		users:     users,
		tokens:    tokens,
		sessions:  sessions,
		mailer:    mailer,
		events:    events,
		validator: validator,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *SignupService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Signup creates the account. When needsActivation is set the account is
// stored pending and an activation link is mailed; otherwise it is stored
// active and a session is started immediately.
func (s *SignupService) Signup(ctx context.Context, input SignupInput, needsActivation bool) (*SignupResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, fmt.Errorf("validate password: %w", err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	status := domain.UserStatusActive
	if needsActivation {
		status = domain.UserStatusPending
	}

	user := domain.User{
		ID:                 uuid.NewString(),
		Username:           username,
		Email:              email,
		PasswordHash:       hash,
		PasswordAlgo:       security.PasswordAlgo,
		Status:             status,
		RegisteredAt:       now,
		LastPasswordChange: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSignupTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	result := &SignupResult{User: user, NeedsActivation: needsActivation}

	if needsActivation {
		if err := s.sendActivation(ctx, user, input.IP, input.UserAgent); err != nil {
			s.logger.Error("activation email failed",
				zap.String("username", user.Username),
				zap.String("email", logger.MaskEmail(user.Email)),
				zap.Error(err))
			return nil, ErrActivationSendFailed
		}
		result.ActivationSentTo = user.Email
	} else {
		started, err := s.sessions.Start(ctx, user.ID, input.IP, input.UserAgent, false)
		if err != nil {
			// Account exists; the visitor can log in normally.
			s.logger.Warn("auto login after signup failed",
				zap.String("username", user.Username),
				zap.Error(err))
		} else {
			result.Session = started
		}
	}

	s.publishRegistered(ctx, result)

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Bool("needs_activation", needsActivation))

	return result, nil
}

// Activate redeems an activation link and flips the account to active.
// Returns the username for the confirmation notice.
func (s *SignupService) Activate(ctx context.Context, raw string) (string, error) {
	userID, err := s.tokens.Consume(ctx, raw, domain.TokenPurposeAccountActivation)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if user.Activate() {
		if err := s.users.UpdateStatus(ctx, user.ID, domain.UserStatusActive); err != nil {
			return "", fmt.Errorf("activate user: %w", err)
		}
	}

	if err := s.events.PublishAccountActivated(ctx, domain.AccountActivatedEvent{
		EventID:     uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		ActivatedAt: s.now().UTC(),
	}); err != nil {
		s.logger.Warn("publish account activated failed", zap.Error(err))
	}

	s.logger.Info("account activated", zap.String("user_id", user.ID))

	return user.Username, nil
}

func (s *SignupService) sendActivation(ctx context.Context, user domain.User, ip, userAgent string) error {
	issued, err := s.tokens.Issue(ctx, IssueInput{
		UserID:    user.ID,
		Purpose:   domain.TokenPurposeAccountActivation,
		TTL:       s.cfg.Tokens.ActivationTTL,
		IP:        ip,
		UserAgent: userAgent,
	})
	if err != nil {
		return fmt.Errorf("issue activation token: %w", err)
	}

	url := fmt.Sprintf("%s/activate-account?token=%s", strings.TrimRight(s.cfg.App.BaseURL, "/"), issued.Raw)
	if err := s.mailer.SendAccountActivation(ctx, user.Email, user.Username, url, issued.ExpiresAt); err != nil {
		return fmt.Errorf("send activation email: %w", err)
	}
	return nil
}

func (s *SignupService) publishRegistered(ctx context.Context, result *SignupResult) {
	event := domain.UserRegisteredEvent{
		EventID:         uuid.NewString(),
		UserID:          result.User.ID,
		Username:        result.User.Username,
		RegisteredAt:    result.User.RegisteredAt,
		NeedsActivation: result.NeedsActivation,
	}
	if result.ActivationSentTo != "" {
		event.ActivationSentTo = logger.MaskEmail(result.ActivationSentTo)
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered failed", zap.Error(err))
	}
}
