package auth

import (
	"context"
	"errors"
	"time"

	"hymnbook/internal/cache"

	"github.com/redis/go-redis/v9"
)

// Revoke blacklists the token's jti until it would have expired anyway.
// Without Redis there is nowhere to record it and the call is a no-op.
func Revoke(ctx context.Context, claims *Claims) error {
	rdb := cache.GetClient()
	if rdb == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, cache.RevokedTokenKey(claims.JTI), "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked by a logout.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	rdb := cache.GetClient()
	if rdb == nil || jti == "" {
		return false, nil
	}
	err := rdb.Get(ctx, cache.RevokedTokenKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
