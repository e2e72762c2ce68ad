package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

// SessionStore persists session records and their one-shot notices in Redis.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore constructs a store using the provided Redis client and key prefix.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "site:session"
	}
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *SessionStore) noticeKey(id string) string {
	return fmt.Sprintf("%s:%s:notice", s.prefix, id)
}

func (s *SessionStore) returnKey(id string) string {
	return fmt.Sprintf("%s:%s:return", s.prefix, id)
}

// Create stores the session record with the given TTL.
func (s *SessionStore) Create(ctx context.Context, session domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Get loads a session record by id.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &session, nil
}

// Delete removes the session record and its pending notice.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id), s.noticeKey(id), s.returnKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// SetNotice stores the flash notice for the session, replacing any pending one.
// The notice inherits the session key's remaining lifetime, capped at an hour.
func (s *SessionStore) SetNotice(ctx context.Context, sessionID string, notice domain.Notice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	if err := s.client.Set(ctx, s.noticeKey(sessionID), payload, time.Hour).Err(); err != nil {
		return fmt.Errorf("redis set notice: %w", err)
	}

	return nil
}

// PopNotice returns and clears the pending notice, if any.
func (s *SessionStore) PopNotice(ctx context.Context, sessionID string) (*domain.Notice, error) {
	payload, err := s.client.GetDel(ctx, s.noticeKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis getdel notice: %w", err)
	}

	var notice domain.Notice
	if err := json.Unmarshal(payload, &notice); err != nil {
		return nil, fmt.Errorf("unmarshal notice: %w", err)
	}

	return &notice, nil
}

// SetReturnURL remembers the path requested before a login redirect.
func (s *SessionStore) SetReturnURL(ctx context.Context, sessionID string, url string) error {
	if err := s.client.Set(ctx, s.returnKey(sessionID), url, time.Hour).Err(); err != nil {
		return fmt.Errorf("redis set return url: %w", err)
	}
	return nil
}

// PopReturnURL returns and clears the remembered path, if any.
func (s *SessionStore) PopReturnURL(ctx context.Context, sessionID string) (string, error) {
	url, err := s.client.GetDel(ctx, s.returnKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis getdel return url: %w", err)
	}
	return url, nil
}
