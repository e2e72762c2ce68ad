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
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

// ErrSessionInvalid indicates the presented cookie does not map to a live
// server-side session.
var ErrSessionInvalid = errors.New("session invalid")

// SessionService manages the server-side session records behind the signed
// cookie, including the one-shot notices and remembered return paths that
// ride on them.
type SessionService struct {
	store  port.SessionStore
	codec  *security.SessionTokenCodec
	cfg    config.SessionSettings
	logger *zap.Logger
	now    func() time.Time
}

// StartedSession pairs a fresh session with the cookie value that
// references it.
type StartedSession struct {
	Session domain.Session
	Cookie  string
}

// NewSessionService constructs a SessionService.
func NewSessionService(store port.SessionStore, codec *security.SessionTokenCodec, cfg config.SessionSettings, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:  store,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// CookieName returns the configured session cookie name.
func (s *SessionService) CookieName() string {
	return s.cfg.CookieName
}

// CookieSecure reports whether the session cookie should carry the Secure
// attribute.
func (s *SessionService) CookieSecure() bool {
	return s.cfg.Secure
}

// Start creates a session record and mints its cookie. An empty userID
// starts a guest session; remember extends the lifetime for logins that
// ticked the remember-me box.
func (s *SessionService) Start(ctx context.Context, userID, ip, userAgent string, remember bool) (*StartedSession, error) {
	now := s.now().UTC()

	ttl := s.cfg.TTL
	if remember && s.cfg.RememberTTL > ttl {
		ttl = s.cfg.RememberTTL
	}

	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.store.Create(ctx, session, ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	cookie, err := s.codec.Mint(session.ID, userID, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("mint session cookie: %w", err)
	}

	return &StartedSession{Session: session, Cookie: cookie}, nil
}

// Resolve maps a cookie value back to its live session record.
func (s *SessionService) Resolve(ctx context.Context, cookie string) (*domain.Session, error) {
	claims, err := s.codec.Parse(cookie)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	session, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session.IsExpired(s.now().UTC()) {
		return nil, ErrSessionInvalid
	}
	return session, nil
}

// Destroy removes the server-side record; the cookie becomes worthless
// immediately regardless of its embedded expiry.
func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Flash stores a one-shot notice for the next rendered view.
func (s *SessionService) Flash(ctx context.Context, sessionID string, level domain.NoticeLevel, message string) {
	if sessionID == "" {
		return
	}
	if err := s.store.SetNotice(ctx, sessionID, domain.Notice{Level: level, Message: message}); err != nil {
		s.logger.Warn("set notice failed", zap.Error(err))
	}
}

// PopNotice returns and clears the pending notice, if any.
func (s *SessionService) PopNotice(ctx context.Context, sessionID string) *domain.Notice {
	if sessionID == "" {
		return nil
	}
	notice, err := s.store.PopNotice(ctx, sessionID)
	if err != nil {
		s.logger.Warn("pop notice failed", zap.Error(err))
		return nil
	}
	return notice
}

// RememberReturnURL records the path a guest asked for so a subsequent
// login can send them back.
func (s *SessionService) RememberReturnURL(ctx context.Context, sessionID, url string) {
	if sessionID == "" || url == "" {
		return
	}
	if err := s.store.SetReturnURL(ctx, sessionID, url); err != nil {
		s.logger.Warn("set return url failed", zap.Error(err))
	}
}

// PopReturnURL returns and clears the remembered path, or fallback when
// none was recorded.
func (s *SessionService) PopReturnURL(ctx context.Context, sessionID, fallback string) string {
	if sessionID == "" {
		return fallback
	}
	url, err := s.store.PopReturnURL(ctx, sessionID)
	if err != nil {
		s.logger.Warn("pop return url failed", zap.Error(err))
		return fallback
	}
	if url == "" {
		return fallback
	}
	return url
}
