package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/form"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
	"github.com/virgantara/yii2-basic-template/internal/transport/http/middleware"
	"github.com/virgantara/yii2-basic-template/internal/usecase"
)

// SignupHandler serves registration and account activation.
type SignupHandler struct {
	renderer *Renderer
	signup   *usecase.SignupService
	sessions *usecase.SessionService
	settings port.SettingStore
	logger   *zap.Logger
}

// NewSignupHandler builds a new signup handler instance.
func NewSignupHandler(renderer *Renderer, signup *usecase.SignupService, sessions *usecase.SessionService, settings port.SettingStore, logger *zap.Logger) *SignupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignupHandler{
		renderer: renderer,
		signup:   signup,
		sessions: sessions,
		settings: settings,
		logger:   logger,
	}
}

// SignupForm renders the registration page.
func (h *SignupHandler) SignupForm(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "signup.html", nil)
}

// Signup processes one registration attempt. The variant of the form and
// the resulting account status follow the registration_needs_activation
// setting.
func (h *SignupHandler) Signup(c *gin.Context) {
	needsActivation := h.needsActivation(c)

	signupForm, err := h.bindSignupForm(c, needsActivation)
	if err != nil {
		h.renderer.HTML(c, http.StatusBadRequest, "signup.html", gin.H{"errors": map[string]string{"": "invalid form submission"}})
		return
	}

	if err := signupForm.Validate(); err != nil {
		h.renderer.HTML(c, http.StatusOK, "signup.html", gin.H{"form": signupForm.Fields(), "errors": fieldErrors(err)})
		return
	}

	fields := signupForm.Fields()
	session := middleware.CurrentSession(c)

	result, err := h.signup.Signup(c.Request.Context(), usecase.SignupInput{
		Username:  fields.Username,
		Email:     fields.Email,
		Password:  fields.Password,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, needsActivation)

	switch {
	case err == nil && result.Session != nil:
		if session != nil {
			if err := h.sessions.Destroy(c.Request.Context(), session.ID); err != nil {
				h.logger.Warn("destroy guest session failed", zap.Error(err))
			}
		}
		middleware.SetSessionCookie(c, h.sessions, result.Session)
		c.Redirect(http.StatusFound, "/")

	case err == nil && result.NeedsActivation:
		if session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeSuccess, "Please check your email to activate your account.")
		}
		c.Redirect(http.StatusFound, "/")

	case err == nil:
		// Account created active but the auto-login did not take; the
		// visitor can log in with their new credentials.
		c.Redirect(http.StatusFound, "/signup")

	case errors.Is(err, usecase.ErrSignupTaken):
		h.logger.Info("signup rejected", zap.String("username", fields.Username))
		if session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeError, "We couldn't sign you up with the provided details.")
		}
		c.Redirect(http.StatusFound, "/signup")

	case errors.Is(err, usecase.ErrActivationSendFailed):
		h.logger.Error("activation email not sent", zap.String("username", fields.Username))
		if session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeError, "We couldn't send the activation email. Please try again later.")
		}
		c.Redirect(http.StatusFound, "/signup")

	default:
		var weak *security.PasswordValidationError
		if errors.As(err, &weak) {
			h.renderer.HTML(c, http.StatusOK, "signup.html", gin.H{"form": fields, "errors": map[string]string{"password": weak.Error()}})
			return
		}
		h.logger.Error("signup failed", zap.String("username", fields.Username), zap.Error(err))
		if session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeError, "We couldn't sign you up with the provided details.")
		}
		c.Redirect(http.StatusFound, "/signup")
	}
}

// Activate redeems an activation link from the email.
func (h *SignupHandler) Activate(c *gin.Context) {
	raw := c.Query("token")
	session := middleware.CurrentSession(c)

	username, err := h.signup.Activate(c.Request.Context(), raw)
	switch {
	case err == nil:
		if session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeSuccess, fmt.Sprintf("Welcome %s! Your account has been activated. You can log in now.", username))
		}
		c.Redirect(http.StatusFound, "/login")

	case errors.Is(err, usecase.ErrTokenMalformed):
		c.String(http.StatusBadRequest, "invalid activation token")

	case errors.Is(err, usecase.ErrTokenInvalid), errors.Is(err, usecase.ErrTokenExpired):
		if session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeError, "The activation link is invalid or has expired.")
		}
		c.Redirect(http.StatusFound, "/login")

	default:
		// Token was fine but the account flip did not persist. Keep the
		// visitor on the public flow instead of surfacing a raw error page.
		h.logger.Error("activation failed", zap.Error(err))
		if session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeError, "Sorry, we were unable to activate your account. Please contact us.")
		}
		c.Redirect(http.StatusFound, "/login")
	}
}

func (h *SignupHandler) needsActivation(c *gin.Context) bool {
	needs, err := h.settings.Bool(c.Request.Context(), domain.SettingRegistrationNeedsActivation, true)
	if err != nil {
		h.logger.Warn("read registration_needs_activation setting failed", zap.Error(err))
		return true
	}
	return needs
}

func (h *SignupHandler) bindSignupForm(c *gin.Context, needsActivation bool) (form.Signup, error) {
	if needsActivation {
		var f form.ActivationSignup
		if err := c.ShouldBind(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	var f form.StandardSignup
	if err := c.ShouldBind(&f); err != nil {
		return nil, err
	}
	return f, nil
}
