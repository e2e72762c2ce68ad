package handlers

import (
	"github.com/gin-gonic/gin"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/virgantara/yii2-basic-template/internal/transport/http/middleware"
	"github.com/virgantara/yii2-basic-template/internal/usecase"
)

// Renderer wraps gin's HTML rendering with the view data every template
// expects: the current session and any pending one-shot notice.
type Renderer struct {
	sessions *usecase.SessionService
}

// NewRenderer constructs a Renderer.
func NewRenderer(sessions *usecase.SessionService) *Renderer {
	return &Renderer{sessions: sessions}
}

// HTML renders the named template, merging the session context into data.
func (r *Renderer) HTML(c *gin.Context, status int, template string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	session := middleware.CurrentSession(c)
	if session != nil {
		data["isAuthenticated"] = session.IsAuthenticated()
		if notice := r.sessions.PopNotice(c.Request.Context(), session.ID); notice != nil {
			data["notice"] = notice
		}
	} else {
		data["isAuthenticated"] = false
	}

	c.HTML(status, template, data)
}

// fieldErrors flattens ozzo validation failures into a field→message map
// for inline rendering. Non-field errors land under the empty key.
func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := make(map[string]string)
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}
	out[""] = err.Error()
	return out
}
