package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishquest/quest-hub/internal/domain/user"
)

func TestNewEntry(t *testing.T) {
	u := &user.User{ID: "u1", DisplayName: "Ann", Points: 500, GamesPlayed: 10, GamesWon: 5}

	e := NewEntry(u, user.AchievementSummary{Count: 2, XP: 100})

	// 500 + 5*50 + 10*10 + 100 + floor(0.5*1000)
	assert.Equal(t, 1450, e.TotalScore)
	assert.Equal(t, 1, e.Level)
	assert.Equal(t, "u1", e.UserID)
	assert.NotEmpty(t, e.RankID)
}

func TestNewEntry_LeveledRankFollowsLevel(t *testing.T) {
	u := &user.User{ID: "u1", Level: user.IntPtr(3)}

	e := NewEntry(u, user.AchievementSummary{})

	assert.Equal(t, 3, e.Level)
	assert.Equal(t, "student", e.RankID)
}

func TestRanking_SharedPositions(t *testing.T) {
	r := NewRanking([]Entry{
		{UserID: "c", DisplayName: "Cid", TotalScore: 100},
		{UserID: "a", DisplayName: "Ann", TotalScore: 300},
		{UserID: "b", DisplayName: "Bob", TotalScore: 300},
		{UserID: "d", DisplayName: "Dan", TotalScore: 50},
	})

	top := r.Top(10)
	require.Len(t, top, 4)

	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{top[0].UserID, top[1].UserID, top[2].UserID, top[3].UserID})
	assert.Equal(t, []int{1, 1, 3, 4}, []int{top[0].Position, top[1].Position, top[2].Position, top[3].Position})

	e, ok := r.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3, e.Position)
}

func TestRanking_DropsDuplicatesAndEmptyIDs(t *testing.T) {
	r := NewRanking([]Entry{
		{UserID: "a", TotalScore: 1},
		{UserID: "a", TotalScore: 99},
		{UserID: "", TotalScore: 5},
	})

	assert.Equal(t, 1, r.Count())
	e, _ := r.Get("a")
	assert.Equal(t, 1, e.TotalScore)
}

func TestRanking_Top(t *testing.T) {
	r := NewRanking([]Entry{{UserID: "a"}, {UserID: "b"}})

	assert.Len(t, r.Top(1), 1)
	assert.Len(t, r.Top(5), 2)
	assert.Empty(t, r.Top(0))

	_, ok := r.Get("missing")
	assert.False(t, ok)
}
