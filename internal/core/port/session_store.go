package port

import (
	"context"
	"time"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
)

// SessionStore persists server-side session records and their one-shot
// notices.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error

	// SetNotice stores the flash notice for the session; it replaces any
	// pending notice.
	SetNotice(ctx context.Context, sessionID string, notice domain.Notice) error
	// PopNotice returns and clears the pending notice, if any.
	PopNotice(ctx context.Context, sessionID string) (*domain.Notice, error)

	// SetReturnURL remembers the path a guest asked for before being sent
	// to the login page.
	SetReturnURL(ctx context.Context, sessionID string, url string) error
	// PopReturnURL returns and clears the remembered path, if any.
	PopReturnURL(ctx context.Context, sessionID string) (string, error)
}
