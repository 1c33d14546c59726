// Package memory provides in-process implementations of the user and
// leaderboard contracts. It backs tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
)

// Store holds users and their completed achievements.
type Store struct {
	mu           sync.RWMutex
	users        map[string]user.User
	achievements map[string][]user.CompletedAchievement

	// BeforeSetLevel runs inside SetLevel before the level is compared.
	// Tests use it to simulate a concurrent writer.
	BeforeSetLevel func(id string)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]user.User),
		achievements: make(map[string][]user.CompletedAchievement),
	}
}

var (
	_ user.Repository            = (*Store)(nil)
	_ user.AchievementRepository = (*Store)(nil)
)

// Put inserts or replaces a user.
func (s *Store) Put(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = copyUser(u)
}

// Complete records a completed achievement for a user.
func (s *Store) Complete(a user.CompletedAchievement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.achievements[a.UserID] {
		if existing.AchievementID == a.AchievementID {
			return
		}
	}
	a.ID = int64(len(s.achievements[a.UserID]) + 1)
	s.achievements[a.UserID] = append(s.achievements[a.UserID], a)
}

// GetByID implements user.Repository.
func (s *Store) GetByID(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	c := copyUser(u)
	return &c, nil
}

// SetLevel implements user.Repository.
func (s *Store) SetLevel(_ context.Context, id string, expected *int, newLevel int) error {
	if newLevel < 1 {
		return shared.ErrInvalidLevel
	}
	if s.BeforeSetLevel != nil {
		s.BeforeSetLevel(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return shared.ErrUserNotFound
	}

	switch {
	case u.Level == nil && expected == nil:
	case u.Level != nil && expected != nil && *u.Level == *expected:
	default:
		return shared.ErrLevelConflict
	}

	u.Level = user.IntPtr(newLevel)
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

// List implements user.Repository.
func (s *Store) List(_ context.Context, offset, limit int) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	end := min(offset+limit, len(ids))

	out := make([]*user.User, 0, end-offset)
	for _, id := range ids[offset:end] {
		c := copyUser(s.users[id])
		out = append(out, &c)
	}
	return out, nil
}

// ListCompleted implements user.AchievementRepository.
func (s *Store) ListCompleted(_ context.Context, userID string) ([]user.CompletedAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.achievements[userID]
	out := make([]user.CompletedAchievement, len(src))
	copy(out, src)
	return out, nil
}

// SummaryByUsers implements user.AchievementRepository.
func (s *Store) SummaryByUsers(_ context.Context, userIDs []string) (map[string]user.AchievementSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]user.AchievementSummary, len(userIDs))
	for _, id := range userIDs {
		list := s.achievements[id]
		if len(list) == 0 {
			continue
		}
		var sum user.AchievementSummary
		for _, a := range list {
			sum.Count++
			sum.XP += a.RewardXP
		}
		out[id] = sum
	}
	return out, nil
}

func copyUser(u user.User) user.User {
	if u.Level != nil {
		u.Level = user.IntPtr(*u.Level)
	}
	return u
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHES
// ══════════════════════════════════════════════════════════════════════════════

// UserCache is a map-backed user.Cache. TTLs are ignored.
type UserCache struct {
	mu    sync.Mutex
	users map[string]user.User
}

// NewUserCache creates an empty cache.
func NewUserCache() *UserCache {
	return &UserCache{users: make(map[string]user.User)}
}

var _ user.Cache = (*UserCache)(nil)

// Get returns shared.ErrNotFound on a miss.
func (c *UserCache) Get(_ context.Context, id string) (*user.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := copyUser(u)
	return &cp, nil
}

// Set stores a copy of u.
func (c *UserCache) Set(_ context.Context, u *user.User, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[u.ID] = copyUser(*u)
	return nil
}

// Invalidate drops the entry.
func (c *UserCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, id)
	return nil
}

// Has reports whether id is cached.
func (c *UserCache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.users[id]
	return ok
}

// LeaderboardCache is a map-backed leaderboard.Cache with the same cold-board
// semantics as the Redis one: Upsert is ignored until Replace is called.
type LeaderboardCache struct {
	mu      sync.Mutex
	warm    bool
	entries map[string]leaderboard.Entry
}

// NewLeaderboardCache creates a cold cache.
func NewLeaderboardCache() *LeaderboardCache {
	return &LeaderboardCache{entries: make(map[string]leaderboard.Entry)}
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)

// Top implements leaderboard.Cache.
func (c *LeaderboardCache) Top(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.warm {
		return nil, leaderboard.ErrNotCached
	}

	all := make([]leaderboard.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		all = append(all, e)
	}
	return leaderboard.NewRanking(all).Top(limit), nil
}

// Replace implements leaderboard.Cache.
func (c *LeaderboardCache) Replace(_ context.Context, entries []leaderboard.Entry, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]leaderboard.Entry, len(entries))
	for _, e := range entries {
		c.entries[e.UserID] = e
	}
	c.warm = true
	return nil
}

// Upsert implements leaderboard.Cache.
func (c *LeaderboardCache) Upsert(_ context.Context, e leaderboard.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.warm {
		return nil
	}
	c.entries[e.UserID] = e
	return nil
}

// Invalidate makes the cache cold again.
func (c *LeaderboardCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warm = false
	c.entries = make(map[string]leaderboard.Entry)
}
