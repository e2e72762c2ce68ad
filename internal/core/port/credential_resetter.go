package port

import (
	"context"
	"time"
)

// CredentialResetter applies a password reset atomically: the token is
// consumed and the new credential stored in one database transaction, so
// either both happen or neither does.
type CredentialResetter interface {
	// ConsumeAndSetPassword marks the token used and replaces the user's
	// credential. Returns repository.ErrNotFound when a concurrent caller
	// consumed the token first.
	ConsumeAndSetPassword(ctx context.Context, tokenID, userID, passwordHash, passwordAlgo string, at time.Time) error
}
