package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Optional Redis client for revoking access tokens on logout. Session
// tokens die with their repository entry; JWTs need this list because
// they stay verifiable until expiry.
var blacklistClient *redis.Client

// SetBlacklistClient configures the Redis client used for revocation.
// Safe to call with nil; revocation then becomes a no-op.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// BlacklistAccessToken marks an access token revoked for the remainder
// of its lifetime. Without a configured client this is a no-op.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if blacklistClient == nil {
		return nil
	}
	key := "blacklist:access:" + token
	return blacklistClient.Set(ctx, key, "1", ttl).Err()
}

// IsAccessTokenBlacklisted reports whether the token was revoked by a
// logout. Without a configured client it reports (false, nil).
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		return false, nil
	}
	key := "blacklist:access:" + token
	exists, err := blacklistClient.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
