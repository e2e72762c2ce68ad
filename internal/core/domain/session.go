package domain

import "time"

// Session is the server-side record behind the signed session cookie.
// A session with an empty UserID belongs to a guest.
type Session struct {
	ID        string
	UserID    string
	IP        string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsAuthenticated reports whether the session carries a logged-in user.
func (s Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// IsExpired reports whether the session has elapsed its lifetime.
func (s Session) IsExpired(at time.Time) bool {
	return !s.ExpiresAt.After(at)
}

// NoticeLevel classifies a one-shot notice for the next rendered view.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a flash message stored for exactly one subsequent response.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
