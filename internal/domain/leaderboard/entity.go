// Package leaderboard ranks users by total score.
package leaderboard

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/englishquest/quest-hub/internal/domain/progression"
	"github.com/englishquest/quest-hub/internal/domain/user"
)

// Entry is one row of the leaderboard.
type Entry struct {
	// Position is 1-based; equal scores share a position.
	Position    int    `json:"position"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	TotalScore  int    `json:"total_score"`
	Level       int    `json:"level"`
	RankID      string `json:"rank_id"`
}

// NewEntry scores a user. Position is assigned by Ranking.
func NewEntry(u *user.User, s user.AchievementSummary) Entry {
	stats := progression.FromRecord(u.Counters(s.Count, s.XP), u.Level)

	return Entry{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		TotalScore:  progression.TotalScore(stats.Raw()),
		Level:       u.EffectiveLevel(),
		RankID:      progression.ResolveRank(stats).ID,
	}
}

// Ranking is an ordered list of entries.
type Ranking struct {
	entries []Entry
	byID    map[string]int
}

// NewRanking builds a sorted ranking. Duplicate user IDs keep the first entry.
func NewRanking(entries []Entry) *Ranking {
	r := &Ranking{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if _, dup := r.byID[e.UserID]; dup || e.UserID == "" {
			continue
		}
		r.byID[e.UserID] = len(r.entries)
		r.entries = append(r.entries, e)
	}

	r.sort()
	return r
}

// sort orders by score descending, then by name, then by ID, and assigns
// shared positions ("1, 1, 3").
func (r *Ranking) sort() {
	sort.Slice(r.entries, func(i, j int) bool {
		a, b := r.entries[i], r.entries[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.UserID < b.UserID
	})

	for i := range r.entries {
		if i > 0 && r.entries[i].TotalScore == r.entries[i-1].TotalScore {
			r.entries[i].Position = r.entries[i-1].Position
		} else {
			r.entries[i].Position = i + 1
		}
		r.byID[r.entries[i].UserID] = i
	}
}

// Top returns the first n entries.
func (r *Ranking) Top(n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	if n > len(r.entries) {
		n = len(r.entries)
	}
	result := make([]Entry, n)
	copy(result, r.entries[:n])
	return result
}

// Get returns the entry for a user.
func (r *Ranking) Get(userID string) (Entry, bool) {
	i, ok := r.byID[userID]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Count returns the number of entries.
func (r *Ranking) Count() int {
	return len(r.entries)
}

// Cache is the hot copy of the leaderboard. Implementations return
// ErrNotCached when the board must be rebuilt from storage.
type Cache interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
	Replace(ctx context.Context, entries []Entry, ttl time.Duration) error
	Upsert(ctx context.Context, entry Entry) error
}

// ErrNotCached is returned by Cache.Top on a cold cache.
var ErrNotCached = errors.New("leaderboard: not cached")
