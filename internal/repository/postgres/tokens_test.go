package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

func TestTokenRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	now := time.Now().UTC()
	ip := "203.0.113.7"
	token := domain.ActionToken{
		ID:        "token-1",
		UserID:    "user-1",
		TokenHash: "hash-1",
		Purpose:   domain.TokenPurposePasswordReset,
		IP:        &ip,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	mock.ExpectExec(`INSERT INTO action_tokens`).
		WithArgs(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.Purpose,
			&ip,
			token.UserAgent,
			token.CreatedAt,
			token.ExpiresAt,
			token.UsedAt,
			token.RevokedAt,
			[]byte(nil),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_GetByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	now := time.Now().UTC()
	rows := pgxmock.NewRows(tokenColumns).AddRow(
		"token-1", "user-1", "hash-1", domain.TokenPurposePasswordReset, nil, nil, now, now.Add(time.Hour), nil, nil, nil,
	)

	mock.ExpectQuery(`SELECT .*FROM action_tokens`).WithArgs("hash-1").WillReturnRows(rows)

	token, err := repo.GetByHash(context.Background(), "hash-1")
	if err != nil {
		t.Fatalf("GetByHash returned error: %v", err)
	}
	if token.ID != "token-1" {
		t.Fatalf("expected token id token-1, got %s", token.ID)
	}
	if token.Purpose != domain.TokenPurposePasswordReset {
		t.Fatalf("expected purpose password_reset, got %s", token.Purpose)
	}
	if token.UsedAt != nil || token.RevokedAt != nil {
		t.Fatalf("expected a live token")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_GetByHash_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM action_tokens`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByHash(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenRepository_Consume(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE action_tokens SET used_at`).
		WithArgs(at, "token-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Consume(context.Background(), "token-1", at); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_Consume_AlreadyUsed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	at := time.Now().UTC()

	// The used_at/revoked_at guard filters out the row, so a losing caller
	// observes zero affected rows.
	mock.ExpectExec(`UPDATE action_tokens SET used_at`).
		WithArgs(at, "token-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Consume(context.Background(), "token-1", at)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for consumed token, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTokenRepository_RevokeLiveForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTokenRepository(mock)

	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE action_tokens SET revoked_at`).
		WithArgs(at, domain.TokenPurposePasswordReset, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	revoked, err := repo.RevokeLiveForUser(context.Background(), "user-1", domain.TokenPurposePasswordReset, at)
	if err != nil {
		t.Fatalf("RevokeLiveForUser returned error: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("expected 2 revoked tokens, got %d", revoked)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
