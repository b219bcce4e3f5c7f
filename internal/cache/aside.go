package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	userKeyPrefix = "user:%d"

	// UserTTL bounds how long a cached user row may be served.
	UserTTL = 5 * time.Minute
)

// UserKey returns the cache key for a user row.
func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

// Aside implements the cache-aside pattern: on a hit, dest is filled from the
// cached JSON; on a miss, load runs and its result (already written into dest
// by the loader) is cached under key. Cache failures degrade to the loader.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if s.ready() {
		raw, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			if unmarshalErr := json.Unmarshal(raw, dest); unmarshalErr == nil {
				return nil
			}
			// Corrupt entry; drop it and fall through to the loader.
			s.client.Del(ctx, key)
		}
		// Any other cache error is treated as a miss.
	}

	if err := load(); err != nil {
		return err
	}

	if s.ready() {
		if raw, err := json.Marshal(dest); err == nil {
			s.client.Set(ctx, key, raw, ttl)
		}
	}
	return nil
}

// Invalidate removes a cache entry; a missing client makes this a no-op.
func (s *Store) Invalidate(ctx context.Context, key string) {
	if s.ready() {
		s.client.Del(ctx, key)
	}
}

// InvalidateUser removes the cached row for the given user.
func (s *Store) InvalidateUser(ctx context.Context, userID uint) {
	s.Invalidate(ctx, UserKey(userID))
}
