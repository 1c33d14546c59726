package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Leveled(t *testing.T) {
	s := Leveled{Level: 1, Counters: Counters{Points: 200, GamesPlayed: 10, GamesWon: 6, CompletedAchievementsCount: 2}}

	snap := Evaluate(s)
	assert.Equal(t, ModeLevel, snap.Mode)
	assert.Equal(t, "newcomer", snap.Rank.ID)
	require.NotNil(t, snap.NextRank)
	assert.Equal(t, "learner", snap.NextRank.ID)
	assert.Equal(t, 100, snap.ProgressPercent)
	assert.True(t, snap.CanLevelUp)
	assert.NotNil(t, snap.Dimensions)
	assert.Equal(t, 2, snap.MaxReachableLevel)
	assert.Equal(t, TotalScore(s.Counters), snap.TotalScore)
}

func TestEvaluate_Legacy(t *testing.T) {
	s := Legacy{Counters{Points: 7000}}

	snap := Evaluate(s)
	assert.Equal(t, ModeLegacy, snap.Mode)
	assert.Equal(t, "myth", snap.Rank.ID)
	assert.Nil(t, snap.NextRank)
	assert.Equal(t, 100, snap.ProgressPercent)
	assert.Equal(t, 1, snap.Level)
	assert.Nil(t, snap.Dimensions)
	assert.False(t, snap.CanLevelUp)
	assert.InDelta(t, 7000.0, snap.WeightedScore, 1e-9)
}

func TestAsLeveled(t *testing.T) {
	assert.Equal(t, 1, AsLeveled(Legacy{}).Level)
	assert.Equal(t, 7, AsLeveled(Leveled{Level: 7}).Level)
}
