package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/infra/config"
	"github.com/virgantara/yii2-basic-template/internal/infra/security"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func newSessionServiceForTest(t *testing.T) (*SessionService, *sessionStoreMock) {
	t.Helper()
	store := newSessionStoreMock()
	codec, err := security.NewSessionTokenCodec(testSessionSecret, "test")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	svc := NewSessionService(store, codec, config.SessionSettings{
		CookieName:  "sid",
		Secret:      testSessionSecret,
		TTL:         time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
	}, nil)
	return svc, store
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestLoginSuccessStartsSession(t *testing.T) {
	hash := mustHashPassword(t, "correct horse 1")
	users := newUserRepoMock(domain.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	})
	sessions, store := newSessionServiceForTest(t)
	svc := NewAuthService(users, sessions, nil)

	result, err := svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "correct horse 1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Session.Cookie == "" {
		t.Fatal("expected a session cookie")
	}
	if _, ok := store.sessions[result.Session.Session.ID]; !ok {
		t.Fatal("expected session record to be stored")
	}
	if _, ok := users.lastLogin["u1"]; !ok {
		t.Fatal("expected last login to be updated")
	}
}

func TestLoginByEmail(t *testing.T) {
	hash := mustHashPassword(t, "correct horse 1")
	users := newUserRepoMock(domain.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	})
	sessions, _ := newSessionServiceForTest(t)
	svc := NewAuthService(users, sessions, nil)

	if _, err := svc.Login(context.Background(), LoginInput{Identifier: "alice@example.com", Password: "correct horse 1", ByEmail: true}); err != nil {
		t.Fatalf("login by email: %v", err)
	}

	// The email is not a valid username lookup.
	if _, err := svc.Login(context.Background(), LoginInput{Identifier: "alice@example.com", Password: "correct horse 1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginPendingAccountNeverSessions(t *testing.T) {
	hash := mustHashPassword(t, "correct horse 1")
	users := newUserRepoMock(domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: hash,
		Status:       domain.UserStatusPending,
	})
	sessions, store := newSessionServiceForTest(t)
	svc := NewAuthService(users, sessions, nil)

	_, err := svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "correct horse 1"})
	if !errors.Is(err, ErrAccountPending) {
		t.Fatalf("expected ErrAccountPending, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("pending account must not get a session, found %d", len(store.sessions))
	}
	if _, ok := users.lastLogin["u1"]; ok {
		t.Fatal("pending account must not update last login")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash := mustHashPassword(t, "correct horse 1")
	users := newUserRepoMock(domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	})
	sessions, _ := newSessionServiceForTest(t)
	svc := NewAuthService(users, sessions, nil)

	if _, err := svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	users := newUserRepoMock()
	sessions, _ := newSessionServiceForTest(t)
	svc := NewAuthService(users, sessions, nil)

	if _, err := svc.Login(context.Background(), LoginInput{Identifier: "ghost", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	hash := mustHashPassword(t, "correct horse 1")
	users := newUserRepoMock(domain.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: hash,
		Status:       domain.UserStatusDisabled,
	})
	sessions, _ := newSessionServiceForTest(t)
	svc := NewAuthService(users, sessions, nil)

	if _, err := svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "correct horse 1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for disabled account, got %v", err)
	}
}

func TestRememberMeExtendsSession(t *testing.T) {
	sessions, _ := newSessionServiceForTest(t)

	plain, err := sessions.Start(context.Background(), "u1", "", "", false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	remembered, err := sessions.Start(context.Background(), "u1", "", "", true)
	if err != nil {
		t.Fatalf("start remembered: %v", err)
	}

	if !remembered.Session.ExpiresAt.After(plain.Session.ExpiresAt) {
		t.Fatal("remembered session should outlive the plain one")
	}
}

func TestSessionResolveRoundTrip(t *testing.T) {
	sessions, store := newSessionServiceForTest(t)

	started, err := sessions.Start(context.Background(), "u1", "10.0.0.1", "test-agent", false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	resolved, err := sessions.Resolve(context.Background(), started.Cookie)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.UserID != "u1" {
		t.Fatalf("resolved user = %q, want u1", resolved.UserID)
	}

	if err := sessions.Destroy(context.Background(), started.Session.ID); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := sessions.Resolve(context.Background(), started.Cookie); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid after destroy, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatal("expected store to be empty after destroy")
	}
}

func TestSessionNoticeIsOneShot(t *testing.T) {
	sessions, _ := newSessionServiceForTest(t)

	started, err := sessions.Start(context.Background(), "", "", "", false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	sessions.Flash(context.Background(), started.Session.ID, domain.NoticeSuccess, "saved")

	notice := sessions.PopNotice(context.Background(), started.Session.ID)
	if notice == nil || notice.Message != "saved" {
		t.Fatalf("expected the flashed notice, got %+v", notice)
	}
	if again := sessions.PopNotice(context.Background(), started.Session.ID); again != nil {
		t.Fatalf("notice must be gone after one pop, got %+v", again)
	}
}
