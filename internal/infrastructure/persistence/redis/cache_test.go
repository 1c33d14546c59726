package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/pkg/circuitbreaker"
)

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"
	cfg.DB = 2

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
}

func TestConfigOptions_URL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "redis://:pw@cache:6380/3"

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
}

func TestConfigOptions_BadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "http://nope"

	_, err := cfg.Options()
	assert.ErrorIs(t, err, ErrCacheConnection)
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "user:abc", UserKey("abc"))
}

func TestEntriesRoundTrip(t *testing.T) {
	in := []leaderboard.Entry{
		{UserID: "a", DisplayName: "Ann", TotalScore: 300, Level: 2, RankID: "learner"},
		{UserID: "", TotalScore: 999},
		{UserID: "b", DisplayName: "Bob", TotalScore: 100, Level: 1, RankID: "newcomer"},
	}

	members, info, err := encodeEntries(in)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, float64(300), members[0].Score)
	assert.Equal(t, "a", members[0].Member)

	raw := []any{info["a"], nil, info["b"]}
	out, err := decodeEntries(raw)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0], out[0])
	assert.Equal(t, in[2], out[1])
}

func TestDecodeEntries_Corrupt(t *testing.T) {
	_, err := decodeEntries([]any{"{not json"})
	assert.ErrorIs(t, err, ErrCacheSerialization)
}

func TestIsBackendFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrCacheMiss, false},
		{redis.Nil, false},
		{leaderboard.ErrNotCached, false},
		{fmt.Errorf("%w: bad", ErrCacheSerialization), false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsBackendFailure(tt.err), "%v", tt.err)
	}
}

func TestCache_BreakerOpensOnDeadServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cb := circuitbreaker.CacheBreaker("redis", nil, IsBackendFailure)
	cache := NewCacheWithClient(client).WithBreaker(cb)
	users := NewUserCache(cache)
	ctx := context.Background()

	// caller mistakes never reach the server or the breaker
	assert.ErrorIs(t, cache.Get(ctx, "", new(string)), ErrCacheKeyEmpty)
	assert.Equal(t, 0, cb.Counts().Requests)

	for i := 0; i < 3; i++ {
		_, err := users.Get(ctx, "abc")
		require.Error(t, err)
		assert.False(t, circuitbreaker.IsRejected(err))
		assert.False(t, shared.IsNotFound(err), "a dead server is not a miss")
	}
	require.Equal(t, circuitbreaker.StateOpen, cb.State())

	_, err := users.Get(ctx, "abc")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)

	board := NewLeaderboardCache(cache, 0)
	_, err = board.Top(ctx, 10)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}
