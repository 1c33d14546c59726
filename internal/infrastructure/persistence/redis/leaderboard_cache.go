package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
)

// LeaderboardCache keeps the leaderboard in Redis.
//
// Layout:
//   - Sorted Set "leaderboard:score" maps userID -> total score
//   - Hash "leaderboard:info" maps userID -> Entry JSON
//
// Rank lookups are O(log N); a top-N read is O(log N + N).
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

const (
	keyLeaderboardScore = PrefixLeaderboard + "score"
	keyLeaderboardInfo  = PrefixLeaderboard + "info"
)

// NewLeaderboardCache creates a LeaderboardCache. A zero ttl uses
// TTLLeaderboardCache.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)

// Top returns the best entries, or leaderboard.ErrNotCached on a cold cache.
func (l *LeaderboardCache) Top(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	if limit <= 0 {
		return []leaderboard.Entry{}, nil
	}

	var raw []any
	err := l.cache.do(ctx, func(ctx context.Context) error {
		client := l.cache.Client()

		n, err := client.Exists(ctx, keyLeaderboardScore).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return leaderboard.ErrNotCached
		}

		ids, err := client.ZRevRange(ctx, keyLeaderboardScore, 0, int64(limit-1)).Result()
		if err != nil || len(ids) == 0 {
			return err
		}

		raw, err = client.HMGet(ctx, keyLeaderboardInfo, ids...).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	entries, err := decodeEntries(raw)
	if err != nil {
		return nil, err
	}

	// positions are recomputed over the slice; the slice is a prefix of the
	// full ordering, so shared positions stay correct
	return leaderboard.NewRanking(entries).Top(limit), nil
}

// Replace swaps the whole board atomically.
func (l *LeaderboardCache) Replace(ctx context.Context, entries []leaderboard.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = l.ttl
	}

	members, info, err := encodeEntries(entries)
	if err != nil {
		return err
	}

	return l.cache.do(ctx, func(ctx context.Context) error {
		pipe := l.cache.Client().TxPipeline()
		pipe.Del(ctx, keyLeaderboardScore, keyLeaderboardInfo)
		if len(members) > 0 {
			pipe.ZAdd(ctx, keyLeaderboardScore, members...)
			pipe.HSet(ctx, keyLeaderboardInfo, info)
			pipe.Expire(ctx, keyLeaderboardScore, ttl)
			pipe.Expire(ctx, keyLeaderboardInfo, ttl)
		}

		_, err := pipe.Exec(ctx)
		return err
	})
}

// Upsert updates one entry on a warm board. A cold board is left cold so the
// next read rebuilds it in full.
func (l *LeaderboardCache) Upsert(ctx context.Context, entry leaderboard.Entry) error {
	if entry.UserID == "" {
		return ErrCacheKeyEmpty
	}

	members, info, err := encodeEntries([]leaderboard.Entry{entry})
	if err != nil {
		return err
	}

	return l.cache.do(ctx, func(ctx context.Context) error {
		client := l.cache.Client()

		n, err := client.Exists(ctx, keyLeaderboardScore).Result()
		if err != nil || n == 0 {
			return err
		}

		pipe := client.TxPipeline()
		pipe.ZAdd(ctx, keyLeaderboardScore, members...)
		pipe.HSet(ctx, keyLeaderboardInfo, info)

		_, err = pipe.Exec(ctx)
		return err
	})
}

// Invalidate drops the board.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	return l.cache.Delete(ctx, keyLeaderboardScore, keyLeaderboardInfo)
}

func encodeEntries(entries []leaderboard.Entry) ([]redis.Z, map[string]any, error) {
	members := make([]redis.Z, 0, len(entries))
	info := make(map[string]any, len(entries))

	for _, e := range entries {
		if e.UserID == "" {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		members = append(members, redis.Z{Score: float64(e.TotalScore), Member: e.UserID})
		info[e.UserID] = string(data)
	}

	return members, info, nil
}

func decodeEntries(raw []any) ([]leaderboard.Entry, error) {
	entries := make([]leaderboard.Entry, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			// member without info; skipped until the next rebuild
			continue
		}
		var e leaderboard.Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
