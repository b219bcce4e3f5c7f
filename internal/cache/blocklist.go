package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBlocklistUnavailable indicates the revocation store could not be
// consulted. Callers must treat this as "revoked" (fail closed): a token
// that cannot be verified against the blocklist is never trusted.
var ErrBlocklistUnavailable = errors.New("token blocklist unavailable")

func blocklistKey(jti string) string {
	return fmt.Sprintf("blocklist:%s", jti)
}

// RevokeToken marks the token identifier as revoked for ttl. The entry only
// needs to outlive the token itself, so ttl is the remaining token lifetime.
func (s *Store) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if !s.ready() {
		return ErrBlocklistUnavailable
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.client.Set(ctx, blocklistKey(jti), "revoked", ttl).Err(); err != nil {
		return ErrBlocklistUnavailable
	}
	return nil
}

// IsTokenRevoked reports whether the token identifier has been revoked.
// A cache error returns ErrBlocklistUnavailable so the guard rejects the
// request instead of silently trusting an unverifiable token.
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if !s.ready() {
		return false, ErrBlocklistUnavailable
	}
	_, err := s.client.Get(ctx, blocklistKey(jti)).Result()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, ErrBlocklistUnavailable
}
