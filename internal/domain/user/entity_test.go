package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishquest/quest-hub/internal/domain/progression"
)

func TestUser_StatsLegacy(t *testing.T) {
	u := &User{ID: "u1", Points: 120, GamesPlayed: 4, GamesWon: 2}

	s := u.Stats([]CompletedAchievement{{RewardXP: 30}, {RewardXP: 20}})

	legacy, ok := s.(progression.Legacy)
	require.True(t, ok)
	assert.Equal(t, 2, legacy.CompletedAchievementsCount)
	assert.Equal(t, 50, legacy.AchievementsXP)
	assert.Equal(t, 1, u.EffectiveLevel())
	assert.False(t, u.HasLevel())
}

func TestUser_StatsLeveled(t *testing.T) {
	u := &User{ID: "u1", Points: 200, Level: IntPtr(3)}

	s := u.Stats(nil)

	leveled, ok := s.(progression.Leveled)
	require.True(t, ok)
	assert.Equal(t, 3, leveled.Level)
	assert.Equal(t, 0, leveled.CompletedAchievementsCount)
	assert.Equal(t, 3, u.EffectiveLevel())
}
