package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
)

func TestStore_SetLevel(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.Put(user.User{ID: "a"})

	require.NoError(t, s.SetLevel(ctx, "a", nil, 2))

	err := s.SetLevel(ctx, "a", nil, 3)
	assert.ErrorIs(t, err, shared.ErrLevelConflict)

	require.NoError(t, s.SetLevel(ctx, "a", user.IntPtr(2), 3))
	u, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, *u.Level)

	assert.ErrorIs(t, s.SetLevel(ctx, "missing", nil, 2), shared.ErrUserNotFound)
	assert.ErrorIs(t, s.SetLevel(ctx, "a", user.IntPtr(3), 0), shared.ErrInvalidLevel)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.Put(user.User{ID: "a", Level: user.IntPtr(1)})

	u, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	*u.Level = 9

	again, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, *again.Level)
}

func TestStore_ListAndSummary(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		s.Put(user.User{ID: id})
	}
	s.Complete(user.CompletedAchievement{UserID: "a", AchievementID: "x", RewardXP: 10})
	s.Complete(user.CompletedAchievement{UserID: "a", AchievementID: "y", RewardXP: 5})
	s.Complete(user.CompletedAchievement{UserID: "a", AchievementID: "y", RewardXP: 5})

	page, err := s.List(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].ID)

	sum, err := s.SummaryByUsers(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, user.AchievementSummary{Count: 2, XP: 15}, sum["a"])
	_, ok := sum["b"]
	assert.False(t, ok)
}

func TestLeaderboardCache_ColdUpsertIgnored(t *testing.T) {
	ctx := context.Background()
	c := NewLeaderboardCache()

	require.NoError(t, c.Upsert(ctx, leaderboard.Entry{UserID: "a", TotalScore: 5}))
	_, err := c.Top(ctx, 10)
	assert.ErrorIs(t, err, leaderboard.ErrNotCached)

	require.NoError(t, c.Replace(ctx, []leaderboard.Entry{{UserID: "b", TotalScore: 1}}, 0))
	require.NoError(t, c.Upsert(ctx, leaderboard.Entry{UserID: "a", TotalScore: 5}))

	top, err := c.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].UserID)
	assert.Equal(t, 1, top[0].Position)
}
