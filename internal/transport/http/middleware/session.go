package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/usecase"
)

const sessionContextKey = "session"

// SessionLoader resolves the session cookie on every request, starting a
// guest session when none is presented. Handlers downstream always see a
// session.
type SessionLoader struct {
	sessions *usecase.SessionService
	logger   *zap.Logger
}

// NewSessionLoader constructs a SessionLoader.
func NewSessionLoader(sessions *usecase.SessionService, logger *zap.Logger) *SessionLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionLoader{sessions: sessions, logger: logger}
}

// Load is the middleware entry point.
func (l *SessionLoader) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if cookie, err := c.Cookie(l.sessions.CookieName()); err == nil && cookie != "" {
			if session, err := l.sessions.Resolve(ctx, cookie); err == nil {
				c.Set(sessionContextKey, session)
				c.Next()
				return
			}
		}

		started, err := l.sessions.Start(ctx, "", c.ClientIP(), c.Request.UserAgent(), false)
		if err != nil {
			l.logger.Error("start guest session failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "service unavailable")
			c.Abort()
			return
		}

		SetSessionCookie(c, l.sessions, started)
		c.Set(sessionContextKey, &started.Session)
		c.Next()
	}
}

// SetSessionCookie writes the signed session cookie for a freshly started
// session.
func SetSessionCookie(c *gin.Context, sessions *usecase.SessionService, started *usecase.StartedSession) {
	maxAge := int(time.Until(started.Session.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessions.CookieName(), started.Cookie, maxAge, "/", "", sessions.CookieSecure(), true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, sessions *usecase.SessionService) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessions.CookieName(), "", -1, "/", "", sessions.CookieSecure(), true)
}

// CurrentSession returns the session placed in the context by Load.
func CurrentSession(c *gin.Context) *domain.Session {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	session, _ := value.(*domain.Session)
	return session
}

// RequireAuth redirects guests to the login page, remembering where they
// were headed so a successful login can send them back.
func RequireAuth(sessions *usecase.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := CurrentSession(c)
		if session == nil || !session.IsAuthenticated() {
			if session != nil && c.Request.Method == http.MethodGet {
				sessions.RememberReturnURL(c.Request.Context(), session.ID, c.Request.URL.RequestURI())
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireGuest sends already-authenticated visitors back to the home page.
func RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session := CurrentSession(c); session != nil && session.IsAuthenticated() {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
