package domain

import "time"

// TokenPurpose tags an action token with the flow it belongs to.
type TokenPurpose string

const (
	TokenPurposePasswordReset     TokenPurpose = "password_reset"
	TokenPurposeAccountActivation TokenPurpose = "account_activation"
)

// Valid reports whether the purpose is one of the known flows.
func (p TokenPurpose) Valid() bool {
	return p == TokenPurposePasswordReset || p == TokenPurposeAccountActivation
}

// ActionToken is a single-use credential embedded in outgoing email links.
// Only the SHA-256 hash of the raw token is ever persisted.
type ActionToken struct {
	ID        string
	UserID    string
	TokenHash string
	Purpose   TokenPurpose
	IP        *string
	UserAgent *string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	RevokedAt *time.Time
	Metadata  map[string]any
}

// IsExpired reports whether the token has elapsed its validity window.
// A token is still valid at exactly ExpiresAt.
func (t ActionToken) IsExpired(at time.Time) bool {
	return t.ExpiresAt.Before(at)
}

// IsLive reports whether the token can still be redeemed.
func (t ActionToken) IsLive(at time.Time) bool {
	if t.UsedAt != nil || t.RevokedAt != nil {
		return false
	}
	return !t.IsExpired(at)
}

// Consume marks the token as used.
// Returns true when the token transitions from unused to used.
func (t *ActionToken) Consume(at time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	timeCopy := at
	t.UsedAt = &timeCopy
	return true
}

// Revoke marks the token as superseded.
func (t *ActionToken) Revoke(at time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	timeCopy := at
	t.RevokedAt = &timeCopy
	return true
}
