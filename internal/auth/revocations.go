package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Revocations records tokens that were logged out before they expired. An
// entry only needs to outlive the token it revokes.
type Revocations interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// fingerprint keeps raw bearer tokens out of the revocation store.
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryRevocations keeps the revocation set in process memory. It is lost on
// restart.
type MemoryRevocations struct {
	c *gocache.Cache
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{c: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (m *MemoryRevocations) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.c.Set(fingerprint(token), struct{}{}, ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	_, found := m.c.Get(fingerprint(token))
	return found, nil
}

// RedisKeys is the part of the go-redis client RedisRevocations uses.
// *redis.Client and *redis.ClusterClient satisfy it.
type RedisKeys interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRevocations shares the revocation set between processes and restarts.
type RedisRevocations struct {
	rdb    RedisKeys
	prefix string
}

func NewRedisRevocations(rdb RedisKeys) *RedisRevocations {
	return &RedisRevocations{rdb: rdb, prefix: "portfolio:revoked:"}
}

func (r *RedisRevocations) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, r.prefix+fingerprint(token), 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.prefix+fingerprint(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
