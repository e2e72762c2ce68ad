package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "site:session")

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	session := domain.Session{
		ID:        "session-1",
		UserID:    "user-1",
		IP:        "203.0.113.7",
		UserAgent: "test-agent",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}

	if err := store.Create(ctx, session, time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	remaining := server.TTL("site:session:session-1")
	if remaining <= 0 || remaining > time.Hour {
		t.Fatalf("expected ttl within (0, 1h], got %v", remaining)
	}

	loaded, err := store.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if loaded.UserID != "user-1" || loaded.IP != "203.0.113.7" {
		t.Fatalf("expected the stored session back, got %+v", loaded)
	}
	if !loaded.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", session.ExpiresAt, loaded.ExpiresAt)
	}

	if err := store.Delete(ctx, "session-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := store.Get(ctx, "session-1"); err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionStore_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "site:session")

	if _, err := store.Get(context.Background(), "missing"); err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_NoticeIsOneShot(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "site:session")

	ctx := context.Background()
	notice := domain.Notice{Level: domain.NoticeSuccess, Message: "Check your email for further instructions."}

	if err := store.SetNotice(ctx, "session-1", notice); err != nil {
		t.Fatalf("SetNotice returned error: %v", err)
	}

	popped, err := store.PopNotice(ctx, "session-1")
	if err != nil {
		t.Fatalf("PopNotice returned error: %v", err)
	}
	if popped == nil || popped.Message != notice.Message || popped.Level != domain.NoticeSuccess {
		t.Fatalf("expected the stored notice back, got %+v", popped)
	}

	popped, err = store.PopNotice(ctx, "session-1")
	if err != nil {
		t.Fatalf("second PopNotice returned error: %v", err)
	}
	if popped != nil {
		t.Fatalf("expected the notice to be consumed, got %+v", popped)
	}
}

func TestSessionStore_NoticeReplacesPending(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "site:session")

	ctx := context.Background()
	if err := store.SetNotice(ctx, "session-1", domain.Notice{Level: domain.NoticeError, Message: "first"}); err != nil {
		t.Fatalf("SetNotice returned error: %v", err)
	}
	if err := store.SetNotice(ctx, "session-1", domain.Notice{Level: domain.NoticeSuccess, Message: "second"}); err != nil {
		t.Fatalf("SetNotice returned error: %v", err)
	}

	popped, err := store.PopNotice(ctx, "session-1")
	if err != nil {
		t.Fatalf("PopNotice returned error: %v", err)
	}
	if popped == nil || popped.Message != "second" {
		t.Fatalf("expected the replacement notice, got %+v", popped)
	}
}

func TestSessionStore_ReturnURLIsOneShot(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "site:session")

	ctx := context.Background()
	if err := store.SetReturnURL(ctx, "session-1", "/logout"); err != nil {
		t.Fatalf("SetReturnURL returned error: %v", err)
	}

	url, err := store.PopReturnURL(ctx, "session-1")
	if err != nil {
		t.Fatalf("PopReturnURL returned error: %v", err)
	}
	if url != "/logout" {
		t.Fatalf("expected /logout, got %q", url)
	}

	url, err = store.PopReturnURL(ctx, "session-1")
	if err != nil {
		t.Fatalf("second PopReturnURL returned error: %v", err)
	}
	if url != "" {
		t.Fatalf("expected the return url to be consumed, got %q", url)
	}
}
