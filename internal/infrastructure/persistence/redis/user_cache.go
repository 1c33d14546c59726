package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
)

// UserCache implements user.Cache on top of Cache.
type UserCache struct {
	cache *Cache
}

// NewUserCache creates a new UserCache.
func NewUserCache(cache *Cache) *UserCache {
	return &UserCache{cache: cache}
}

var _ user.Cache = (*UserCache)(nil)

// Get returns a cached user. A miss matches both ErrCacheMiss and
// shared.ErrNotFound.
func (u *UserCache) Get(ctx context.Context, userID string) (*user.User, error) {
	var rec user.User
	if err := u.cache.Get(ctx, UserKey(userID), &rec); err != nil {
		if IsMiss(err) {
			return nil, fmt.Errorf("%w: %w", err, shared.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

// Set stores a user record. A zero ttl uses TTLUserCache.
func (u *UserCache) Set(ctx context.Context, rec *user.User, ttl time.Duration) error {
	if rec == nil {
		return ErrCacheNilValue
	}
	if ttl == 0 {
		ttl = TTLUserCache
	}
	return u.cache.Set(ctx, UserKey(rec.ID), rec, ttl)
}

// Invalidate drops a user record.
func (u *UserCache) Invalidate(ctx context.Context, userID string) error {
	return u.cache.Delete(ctx, UserKey(userID))
}

// IsMiss reports whether err means the key was absent.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
