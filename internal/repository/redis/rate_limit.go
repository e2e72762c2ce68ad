package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virgantara/yii2-basic-template/internal/core/port"
)

var errBadWindow = errors.New("attempt window must be positive")

// RateLimitRepository tracks login and password-reset attempts as Redis
// sorted sets keyed by client identifier, scored by nanosecond timestamp.
// The throttling middleware decides what to do with the counts.
type RateLimitRepository struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRateLimitRepository constructs the attempt store. Keys expire after
// retention so abandoned identifiers do not accumulate; pass zero to keep
// them until Redis evicts them.
func NewRateLimitRepository(client *redis.Client, prefix string, retention time.Duration) *RateLimitRepository {
	return &RateLimitRepository{client: client, prefix: prefix, retention: retention}
}

// RecordAttempt appends one attempt at the given instant.
func (r *RateLimitRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	ns := at.UnixNano()
	key := r.key(identifier)

	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(ns), Member: strconv.FormatInt(ns, 10)})
		if r.retention > 0 {
			pipe.Expire(ctx, key, r.retention)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// CountAttempts reports how many attempts fall inside the window ending at
// the reference instant.
func (r *RateLimitRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errBadWindow
	}

	lo, hi := windowBounds(window, reference)
	count, err := r.client.ZCount(ctx, r.key(identifier), lo, hi).Result()
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return int(count), nil
}

// TrimWindow drops attempts that have slid out of the window.
func (r *RateLimitRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errBadWindow
	}

	lo, _ := windowBounds(window, reference)
	if err := r.client.ZRemRangeByScore(ctx, r.key(identifier), "-inf", "("+lo).Err(); err != nil {
		return fmt.Errorf("trim attempts: %w", err)
	}
	return nil
}

// OldestAttempt returns the earliest attempt still inside the window. The
// middleware derives Retry-After from it. ok is false when the window holds
// no attempts at all.
func (r *RateLimitRepository) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errBadWindow
	}

	lo, hi := windowBounds(window, reference)
	members, err := r.client.ZRangeByScore(ctx, r.key(identifier), &redis.ZRangeBy{Min: lo, Max: hi, Count: 1}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("oldest attempt: %w", err)
	}
	if len(members) == 0 {
		return time.Time{}, false, nil
	}

	ns, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse attempt member %q: %w", members[0], err)
	}
	return time.Unix(0, ns), true, nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.prefix == "" {
		return identifier
	}
	return r.prefix + ":" + identifier
}

// windowBounds yields inclusive ZSET score bounds for the window that ends
// at reference.
func windowBounds(window time.Duration, reference time.Time) (string, string) {
	lo := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	hi := strconv.FormatInt(reference.UnixNano(), 10)
	return lo, hi
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
