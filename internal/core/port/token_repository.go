package port

import (
	"context"
	"time"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
)

// TokenRepository manages single-use action token records.
type TokenRepository interface {
	Create(ctx context.Context, token domain.ActionToken) error
	GetByHash(ctx context.Context, hash string) (*domain.ActionToken, error)
	// Consume marks the token used. Concurrent calls for the same id race;
	// only the first wins, later calls get repository.ErrNotFound.
	Consume(ctx context.Context, id string, at time.Time) error
	// RevokeLiveForUser supersedes all unconsumed tokens of the given
	// purpose for the user, returning how many were revoked.
	RevokeLiveForUser(ctx context.Context, userID string, purpose domain.TokenPurpose, at time.Time) (int, error)
}
