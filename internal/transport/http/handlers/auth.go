package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/form"
	"github.com/virgantara/yii2-basic-template/internal/transport/http/middleware"
	"github.com/virgantara/yii2-basic-template/internal/usecase"
)

// AuthHandler serves the login and logout pages.
type AuthHandler struct {
	renderer *Renderer
	auth     *usecase.AuthService
	sessions *usecase.SessionService
	settings port.SettingStore
	logger   *zap.Logger
}

// NewAuthHandler builds a new auth handler instance.
func NewAuthHandler(renderer *Renderer, auth *usecase.AuthService, sessions *usecase.SessionService, settings port.SettingStore, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		renderer: renderer,
		auth:     auth,
		sessions: sessions,
		settings: settings,
		logger:   logger,
	}
}

// LoginForm renders the login page for guests; authenticated visitors are
// sent home by the guest middleware before reaching here.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	byEmail := h.loginByEmail(c)
	h.renderer.HTML(c, http.StatusOK, "login.html", gin.H{"byEmail": byEmail})
}

// Login processes one login attempt.
func (h *AuthHandler) Login(c *gin.Context) {
	byEmail := h.loginByEmail(c)

	loginForm, err := h.bindLoginForm(c, byEmail)
	if err != nil {
		h.renderer.HTML(c, http.StatusBadRequest, "login.html", gin.H{"byEmail": byEmail, "errors": map[string]string{"": "invalid form submission"}})
		return
	}

	if err := loginForm.Validate(); err != nil {
		h.renderer.HTML(c, http.StatusOK, "login.html", gin.H{"byEmail": byEmail, "form": loginForm, "errors": fieldErrors(err)})
		return
	}

	guest := middleware.CurrentSession(c)

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Identifier: loginForm.Identifier(),
		Password:   loginForm.Secret(),
		ByEmail:    byEmail,
		Remember:   loginForm.Remember(),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	switch {
	case err == nil:
		target := "/"
		if guest != nil {
			target = h.sessions.PopReturnURL(c.Request.Context(), guest.ID, "/")
			if err := h.sessions.Destroy(c.Request.Context(), guest.ID); err != nil {
				h.logger.Warn("destroy guest session failed", zap.Error(err))
			}
		}
		middleware.SetSessionCookie(c, h.sessions, &result.Session)
		c.Redirect(http.StatusFound, target)

	case errors.Is(err, usecase.ErrAccountPending):
		if guest != nil {
			h.sessions.Flash(c.Request.Context(), guest.ID, domain.NoticeError, "Your account has not been activated yet. Please check your email for the activation link.")
		}
		c.Redirect(http.StatusFound, "/login")

	case errors.Is(err, usecase.ErrInvalidCredentials):
		h.renderer.HTML(c, http.StatusOK, "login.html", gin.H{"byEmail": byEmail, "form": loginForm, "errors": map[string]string{"": "Incorrect username or password."}})

	default:
		h.logger.Error("login failed", zap.Error(err))
		h.renderer.HTML(c, http.StatusInternalServerError, "login.html", gin.H{"byEmail": byEmail, "errors": map[string]string{"": "Something went wrong. Please try again."}})
	}
}

// Account renders the signed-in visitor's profile page. Guests are bounced
// to /login by the auth middleware, which also remembers this URL so a
// successful login lands back here.
func (h *AuthHandler) Account(c *gin.Context) {
	session := middleware.CurrentSession(c)

	user, err := h.auth.Profile(c.Request.Context(), session.UserID)
	if err != nil {
		// The session outlived its account; drop it and start over.
		h.logger.Warn("load account failed", zap.String("user_id", session.UserID), zap.Error(err))
		if err := h.sessions.Destroy(c.Request.Context(), session.ID); err != nil {
			h.logger.Warn("destroy session failed", zap.Error(err))
		}
		middleware.ClearSessionCookie(c, h.sessions)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	h.renderer.HTML(c, http.StatusOK, "account.html", gin.H{"user": user})
}

// Logout destroys the current session. POST only; guests never reach here.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session != nil {
		if err := h.sessions.Destroy(c.Request.Context(), session.ID); err != nil {
			h.logger.Warn("destroy session failed", zap.Error(err))
		}
	}
	middleware.ClearSessionCookie(c, h.sessions)
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) loginByEmail(c *gin.Context) bool {
	byEmail, err := h.settings.Bool(c.Request.Context(), domain.SettingLoginWithEmail, false)
	if err != nil {
		h.logger.Warn("read login_with_email setting failed", zap.Error(err))
		return false
	}
	return byEmail
}

func (h *AuthHandler) bindLoginForm(c *gin.Context, byEmail bool) (form.Login, error) {
	if byEmail {
		var f form.EmailLogin
		if err := c.ShouldBind(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	var f form.StandardLogin
	if err := c.ShouldBind(&f); err != nil {
		return nil, err
	}
	return f, nil
}
