package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/virgantara/yii2-basic-template/internal/repository"
)

func TestResetExecutor_ConsumeAndSetPassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	exec := NewResetExecutor(mock)

	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE action_tokens SET used_at`).
		WithArgs(at, "token-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("salt:newhash", "argon2id", at, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := exec.ConsumeAndSetPassword(context.Background(), "token-1", "user-1", "salt:newhash", "argon2id", at); err != nil {
		t.Fatalf("ConsumeAndSetPassword returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestResetExecutor_ConsumeAndSetPassword_LostRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	exec := NewResetExecutor(mock)

	at := time.Now().UTC()

	// Another request consumed the token first: the guarded update matches
	// nothing and the whole transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE action_tokens SET used_at`).
		WithArgs(at, "token-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err = exec.ConsumeAndSetPassword(context.Background(), "token-1", "user-1", "salt:newhash", "argon2id", at)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after losing the race, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
