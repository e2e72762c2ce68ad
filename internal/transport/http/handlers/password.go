package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/form"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
	"github.com/virgantara/yii2-basic-template/internal/transport/http/middleware"
	"github.com/virgantara/yii2-basic-template/internal/usecase"
)

// PasswordHandler serves the forgot-password flow.
type PasswordHandler struct {
	renderer *Renderer
	resets   *usecase.PasswordResetService
	sessions *usecase.SessionService
	logger   *zap.Logger
}

// NewPasswordHandler builds a new password handler instance.
func NewPasswordHandler(renderer *Renderer, resets *usecase.PasswordResetService, sessions *usecase.SessionService, logger *zap.Logger) *PasswordHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordHandler{
		renderer: renderer,
		resets:   resets,
		sessions: sessions,
		logger:   logger,
	}
}

// RequestResetForm renders the "enter your email" page.
func (h *PasswordHandler) RequestResetForm(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "request_reset.html", nil)
}

// RequestReset issues a reset link for the submitted email. The response
// for an unknown address is indistinguishable from a delivery failure.
func (h *PasswordHandler) RequestReset(c *gin.Context) {
	var f form.PasswordResetRequest
	if err := c.ShouldBind(&f); err != nil {
		h.renderer.HTML(c, http.StatusBadRequest, "request_reset.html", gin.H{"errors": map[string]string{"": "invalid form submission"}})
		return
	}

	if err := f.Validate(); err != nil {
		h.renderer.HTML(c, http.StatusOK, "request_reset.html", gin.H{"form": f, "errors": fieldErrors(err)})
		return
	}

	err := h.resets.RequestReset(c.Request.Context(), usecase.ResetRequestInput{
		Email:     f.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	switch {
	case err == nil:
		if session := middleware.CurrentSession(c); session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeSuccess, "Check your email for further instructions.")
		}
		c.Redirect(http.StatusFound, "/")

	case errors.Is(err, usecase.ErrResetUnavailable):
		h.renderer.HTML(c, http.StatusOK, "request_reset.html", gin.H{"form": f, "errors": map[string]string{"": "Sorry, we are unable to reset the password for the provided email address."}})

	default:
		h.logger.Error("reset request failed", zap.Error(err))
		h.renderer.HTML(c, http.StatusInternalServerError, "request_reset.html", gin.H{"form": f, "errors": map[string]string{"": "Something went wrong. Please try again."}})
	}
}

// ResetPasswordForm verifies the emailed token before rendering the new
// password form; a token that will not redeem never shows the form.
func (h *PasswordHandler) ResetPasswordForm(c *gin.Context) {
	raw := c.Query("token")
	if err := h.resets.ValidateToken(c.Request.Context(), raw); err != nil {
		h.rejectToken(c, err)
		return
	}
	h.renderer.HTML(c, http.StatusOK, "reset_password.html", gin.H{"token": raw})
}

// ResetPassword consumes the token and stores the new credential.
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	raw := c.Query("token")

	var f form.ResetPassword
	if err := c.ShouldBind(&f); err != nil {
		h.renderer.HTML(c, http.StatusBadRequest, "reset_password.html", gin.H{"token": raw, "errors": map[string]string{"": "invalid form submission"}})
		return
	}

	if err := f.Validate(); err != nil {
		h.renderer.HTML(c, http.StatusOK, "reset_password.html", gin.H{"token": raw, "errors": fieldErrors(err)})
		return
	}

	err := h.resets.ResetPassword(c.Request.Context(), raw, f.Password)
	switch {
	case err == nil:
		if session := middleware.CurrentSession(c); session != nil {
			h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeSuccess, "New password saved. You can log in now.")
		}
		c.Redirect(http.StatusFound, "/login")

	case errors.Is(err, usecase.ErrTokenMalformed),
		errors.Is(err, usecase.ErrTokenInvalid),
		errors.Is(err, usecase.ErrTokenExpired):
		h.rejectToken(c, err)

	default:
		var weak *security.PasswordValidationError
		if errors.As(err, &weak) {
			h.renderer.HTML(c, http.StatusOK, "reset_password.html", gin.H{"token": raw, "errors": map[string]string{"password": weak.Error()}})
			return
		}
		h.logger.Error("password reset failed", zap.Error(err))
		h.renderer.HTML(c, http.StatusInternalServerError, "reset_password.html", gin.H{"token": raw, "errors": map[string]string{"": "Something went wrong. Please try again."}})
	}
}

func (h *PasswordHandler) rejectToken(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrTokenMalformed),
		errors.Is(err, usecase.ErrTokenInvalid),
		errors.Is(err, usecase.ErrTokenExpired):
		c.String(http.StatusBadRequest, "invalid password reset token")
	default:
		h.logger.Error("reset token check failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "something went wrong")
	}
}
