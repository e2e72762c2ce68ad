package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

var tokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"purpose",
	"ip",
	"user_agent",
	"created_at",
	"expires_at",
	"used_at",
	"revoked_at",
	"metadata",
}

// TokenRepository implements port.TokenRepository using PostgreSQL.
type TokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a token repository over any executor satisfying
// pgExecutor (a pool, a transaction, or a mock in tests).
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	return &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new action token record.
func (r *TokenRepository) Create(ctx context.Context, token domain.ActionToken) error {
	metadata, err := marshalMetadata(token.Metadata)
	if err != nil {
		return fmt.Errorf("prepare token metadata: %w", err)
	}

	stmt, args, err := r.builder.Insert("action_tokens").
		Columns(tokenColumns...).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.Purpose,
			token.IP,
			token.UserAgent,
			token.CreatedAt,
			token.ExpiresAt,
			token.UsedAt,
			token.RevokedAt,
			metadata,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert action token: %w", err)
	}

	return nil
}

// GetByHash retrieves an action token by its hashed value.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*domain.ActionToken, error) {
	stmt, args, err := r.builder.Select(tokenColumns...).
		From("action_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		token     domain.ActionToken
		ip        sql.NullString
		userAgent sql.NullString
		usedAt    sql.NullTime
		revokedAt sql.NullTime
		metadata  []byte
	)

	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Purpose,
		&ip,
		&userAgent,
		&token.CreatedAt,
		&token.ExpiresAt,
		&usedAt,
		&revokedAt,
		&metadata,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan action token: %w", err)
	}

	if ip.Valid {
		v := ip.String
		token.IP = &v
	}
	if userAgent.Valid {
		v := userAgent.String
		token.UserAgent = &v
	}
	if usedAt.Valid {
		t := usedAt.Time
		token.UsedAt = &t
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		token.RevokedAt = &t
	}

	meta, err := unmarshalMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("decode token metadata: %w", err)
	}
	token.Metadata = meta

	return &token, nil
}

// Consume marks the token used. The used_at guard makes concurrent consume
// attempts race to a single winner; losers observe zero affected rows.
func (r *TokenRepository) Consume(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("action_tokens").
		Set("used_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		Where("used_at IS NULL").
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume action token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RevokeLiveForUser supersedes all unconsumed tokens of the purpose for the user.
func (r *TokenRepository) RevokeLiveForUser(ctx context.Context, userID string, purpose domain.TokenPurpose, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update("action_tokens").
		Set("revoked_at", at.UTC()).
		Where(squirrel.Eq{"user_id": userID, "purpose": purpose}).
		Where("used_at IS NULL").
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke tokens sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke action tokens: %w", err)
	}

	return int(ct.RowsAffected()), nil
}
