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

// SiteHandler serves the static pages and the contact form.
type SiteHandler struct {
	renderer *Renderer
	contact  *usecase.ContactService
	sessions *usecase.SessionService
	logger   *zap.Logger
}

// NewSiteHandler builds a new site handler instance.
func NewSiteHandler(renderer *Renderer, contact *usecase.ContactService, sessions *usecase.SessionService, logger *zap.Logger) *SiteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteHandler{
		renderer: renderer,
		contact:  contact,
		sessions: sessions,
		logger:   logger,
	}
}

// Index renders the home page.
func (h *SiteHandler) Index(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "index.html", nil)
}

// About renders the about page.
func (h *SiteHandler) About(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "about.html", nil)
}

// ContactForm renders the empty contact form.
func (h *SiteHandler) ContactForm(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "contact.html", gin.H{"form": form.Contact{}})
}

// Contact validates the submission, forwards it to the admin mailbox and
// refreshes the page with a notice.
func (h *SiteHandler) Contact(c *gin.Context) {
	var f form.Contact
	if err := c.ShouldBind(&f); err != nil {
		h.renderer.HTML(c, http.StatusBadRequest, "contact.html", gin.H{"form": f, "errors": map[string]string{"": "invalid form submission"}})
		return
	}

	if err := f.Validate(); err != nil {
		h.renderer.HTML(c, http.StatusOK, "contact.html", gin.H{"form": f, "errors": fieldErrors(err)})
		return
	}

	session := middleware.CurrentSession(c)

	err := h.contact.Send(c.Request.Context(), port.ContactMessage{
		Name:    f.Name,
		Email:   f.Email,
		Subject: f.Subject,
		Body:    f.Body,
	})
	if err != nil {
		if !errors.Is(err, usecase.ErrContactUndeliverable) {
			h.logger.Error("contact submission failed", zap.Error(err))
		}
		h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeError, "There was an error sending your message.")
		c.Redirect(http.StatusFound, "/contact")
		return
	}

	h.sessions.Flash(c.Request.Context(), session.ID, domain.NoticeSuccess, "Thank you for contacting us. We will respond to you as soon as possible.")
	c.Redirect(http.StatusFound, "/contact")
}
