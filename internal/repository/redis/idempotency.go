package redis

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock   = "LOCK"
	idemResult = "RES:"
)

// IdempotencyStore remembers the response given to an Idempotency-Key so a
// retried request gets the same answer instead of a second reservation.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemLock, lockTTL).Result()
}

// SaveResult stores the final HTTP status and body, replacing the lock.
func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, status int, payload []byte) error {
	val := idemResult + strconv.Itoa(status) + ":" + string(payload)
	return s.rdb.Set(ctx, key, val, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (int, []byte, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}

	rest, ok := strings.CutPrefix(v, idemResult)
	if !ok {
		return 0, nil, false, nil
	}

	code, body, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, nil, false, nil
	}

	status, err := strconv.Atoi(code)
	if err != nil {
		return 0, nil, false, nil
	}

	return status, []byte(body), true, nil
}

func (s *IdempotencyStore) IsLocked(ctx context.Context, key string) (bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == idemLock, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
