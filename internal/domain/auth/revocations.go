package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// Revocations records signed-out session ids until their tokens expire
type Revocations interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewRevocations returns a Redis-backed list, or an in-memory one when redisClient is nil
func NewRevocations(redisClient *redis.Client) Revocations {
	if redisClient == nil {
		return NewMemoryRevocations()
	}
	return &redisRevocations{redis: redisClient}
}

type redisRevocations struct {
	redis *redis.Client
}

func (r *redisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.redis.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

func (r *redisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.redis.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevocations is a process-local revocation list
type MemoryRevocations struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocations creates an empty in-memory revocation list
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{expires: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.expires {
		if !exp.After(now) {
			delete(m.expires, k)
		}
	}
	m.expires[jti] = now.Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.expires[jti]
	return ok && exp.After(m.now()), nil
}
