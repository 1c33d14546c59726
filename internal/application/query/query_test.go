package query

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/internal/domain/progression"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
	"github.com/englishquest/quest-hub/internal/infrastructure/persistence/memory"
	"github.com/englishquest/quest-hub/pkg/logger"
)

const (
	annID = "11111111-1111-1111-1111-111111111111"
	bobID = "22222222-2222-2222-2222-222222222222"
)

func quietLogger() *logger.Logger {
	return logger.NewFromConfig("error", io.Discard)
}

func seed() *memory.Store {
	s := memory.NewStore()
	s.Put(user.User{ID: annID, DisplayName: "Ann", Points: 250, GamesPlayed: 12, GamesWon: 7, Level: user.IntPtr(1)})
	s.Put(user.User{ID: bobID, DisplayName: "Bob", Points: 500, GamesPlayed: 10, GamesWon: 5})
	s.Complete(user.CompletedAchievement{UserID: annID, AchievementID: "first-word", RewardXP: 50})
	s.Complete(user.CompletedAchievement{UserID: annID, AchievementID: "first-game", RewardXP: 30})
	s.Complete(user.CompletedAchievement{UserID: bobID, AchievementID: "first-word", RewardXP: 50})
	return s
}

func TestGetProgression_Leveled(t *testing.T) {
	store := seed()
	h := NewGetProgressionHandler(store, store, nil, time.Minute, quietLogger())

	dto, err := h.Handle(context.Background(), GetProgressionQuery{UserID: annID})
	require.NoError(t, err)

	assert.Equal(t, "Ann", dto.DisplayName)
	assert.Equal(t, 2, dto.CompletedAchievements)
	assert.Equal(t, progression.ModeLevel, dto.Progression.Mode)
	assert.Equal(t, 1, dto.Progression.Level)
	assert.Equal(t, "newcomer", dto.Progression.Rank.ID)
	assert.True(t, dto.Progression.CanLevelUp)
	assert.Equal(t, 100, dto.Progression.ProgressPercent)
}

func TestGetProgression_Legacy(t *testing.T) {
	store := seed()
	h := NewGetProgressionHandler(store, store, nil, time.Minute, quietLogger())

	dto, err := h.Handle(context.Background(), GetProgressionQuery{UserID: bobID})
	require.NoError(t, err)

	assert.Equal(t, progression.ModeLegacy, dto.Progression.Mode)
	assert.Equal(t, 1, dto.Progression.Level)
	// min(500 + 100 + 100 + 15, 600) = 600
	assert.Equal(t, 600.0, dto.Progression.WeightedScore)
	assert.Equal(t, "speaker", dto.Progression.Rank.ID)
}

func TestGetProgression_Errors(t *testing.T) {
	store := seed()
	h := NewGetProgressionHandler(store, store, nil, time.Minute, quietLogger())

	_, err := h.Handle(context.Background(), GetProgressionQuery{UserID: "not-a-uuid"})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), GetProgressionQuery{UserID: "33333333-3333-3333-3333-333333333333"})
	assert.True(t, shared.IsNotFound(err))
}

func TestGetProgression_UsesCache(t *testing.T) {
	store := seed()
	cache := memory.NewUserCache()
	h := NewGetProgressionHandler(store, store, cache, time.Minute, quietLogger())

	_, err := h.Handle(context.Background(), GetProgressionQuery{UserID: annID})
	require.NoError(t, err)
	assert.True(t, cache.Has(annID))

	// A cached copy wins over the store until it is invalidated.
	store.Put(user.User{ID: annID, DisplayName: "Renamed", Level: user.IntPtr(1)})
	dto, err := h.Handle(context.Background(), GetProgressionQuery{UserID: annID})
	require.NoError(t, err)
	assert.Equal(t, "Ann", dto.DisplayName)

	require.NoError(t, cache.Invalidate(context.Background(), annID))
	dto, err = h.Handle(context.Background(), GetProgressionQuery{UserID: annID})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", dto.DisplayName)
}

type brokenCache struct{ user.Cache }

func (brokenCache) Get(context.Context, string) (*user.User, error) {
	return nil, errors.New("redis: connection refused")
}

func (brokenCache) Set(context.Context, *user.User, time.Duration) error { return nil }

func TestGetProgression_CacheFailureIsLogged(t *testing.T) {
	store := seed()

	var buf bytes.Buffer
	h := NewGetProgressionHandler(store, store, brokenCache{}, time.Minute, logger.NewFromConfig("warn", &buf))

	dto, err := h.Handle(context.Background(), GetProgressionQuery{UserID: annID})
	require.NoError(t, err)
	assert.Equal(t, "Ann", dto.DisplayName)
	assert.Contains(t, buf.String(), "user cache read failed")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestGetProgression_CacheMissIsQuiet(t *testing.T) {
	store := seed()

	var buf bytes.Buffer
	h := NewGetProgressionHandler(store, store, memory.NewUserCache(), time.Minute, logger.NewFromConfig("warn", &buf))

	_, err := h.Handle(context.Background(), GetProgressionQuery{UserID: annID})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

type failingUsers struct{ user.Repository }

func (failingUsers) GetByID(context.Context, string) (*user.User, error) {
	return nil, errors.New("connection refused")
}

func (failingUsers) List(context.Context, int, int) ([]*user.User, error) {
	return nil, errors.New("connection refused")
}

func TestGetProgression_StorageFailure(t *testing.T) {
	store := seed()
	h := NewGetProgressionHandler(failingUsers{}, store, nil, time.Minute, quietLogger())

	_, err := h.Handle(context.Background(), GetProgressionQuery{UserID: annID})
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.True(t, shared.IsRetryable(err))
}

func TestGetLeaderboard_RebuildsAndCaches(t *testing.T) {
	store := seed()
	board := memory.NewLeaderboardCache()
	h := NewGetLeaderboardHandler(store, store, board, time.Minute, 100, quietLogger())

	dto, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, dto.Source)
	require.Len(t, dto.Entries, 2)

	// Bob: 500 + 250 + 100 + 50 + 500 = 1400; Ann: 250 + 350 + 120 + 80 + 583 = 1383
	assert.Equal(t, bobID, dto.Entries[0].UserID)
	assert.Equal(t, 1400, dto.Entries[0].TotalScore)
	assert.Equal(t, 1, dto.Entries[0].Position)
	assert.Equal(t, 2, dto.Entries[1].Position)

	dto, err = h.Handle(context.Background(), GetLeaderboardQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, dto.Source)
	require.Len(t, dto.Entries, 1)
	assert.Equal(t, bobID, dto.Entries[0].UserID)
}

func TestGetLeaderboard_NoCache(t *testing.T) {
	store := seed()
	h := NewGetLeaderboardHandler(store, store, nil, time.Minute, 100, quietLogger())

	dto, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, dto.Source)
	assert.Len(t, dto.Entries, 2)
}

func TestGetLeaderboard_PagesThroughUsers(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 7; i++ {
		store.Put(user.User{ID: string(rune('a' + i)), Points: i * 10})
	}
	h := NewGetLeaderboardHandler(store, store, nil, time.Minute, 100, quietLogger())
	h.batchSize = 3

	ranking, err := h.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, ranking.Count())

	top := ranking.Top(1)
	assert.Equal(t, "g", top[0].UserID)
}

func TestGetLeaderboard_StorageFailure(t *testing.T) {
	store := seed()
	h := NewGetLeaderboardHandler(failingUsers{}, store, leaderboard.Cache(nil), time.Minute, 100, quietLogger())

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}
