package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirementsForLevel_Known(t *testing.T) {
	tests := []struct {
		level int
		want  LevelRequirements
	}{
		{1, LevelRequirements{200, 10, 6, 2}},
		{2, LevelRequirements{300, 15, 9, 4}},
		{3, LevelRequirements{450, 22, 13, 6}},
		{5, LevelRequirements{1012, 50, 30, 15}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RequirementsForLevel(tt.level), "level %d", tt.level)
	}
}

func TestRequirementsForLevel_Monotonic(t *testing.T) {
	prev := RequirementsForLevel(1)
	for level := 2; level <= MaxSimulatedLevel; level++ {
		cur := RequirementsForLevel(level)
		assert.GreaterOrEqual(t, cur.PointsNeeded, prev.PointsNeeded, "points at %d", level)
		assert.GreaterOrEqual(t, cur.GamesNeeded, prev.GamesNeeded, "games at %d", level)
		assert.GreaterOrEqual(t, cur.WinsNeeded, prev.WinsNeeded, "wins at %d", level)
		assert.GreaterOrEqual(t, cur.AchievementsNeeded, prev.AchievementsNeeded, "achievements at %d", level)
		prev = cur
	}
}

func TestRequirementsForLevel_Saturates(t *testing.T) {
	req := RequirementsForLevel(5000)
	assert.Positive(t, req.PointsNeeded)
	assert.Positive(t, req.AchievementsNeeded)
}

func TestRequirementsForLevel_AchievementFloor(t *testing.T) {
	for _, level := range []int{-3, 0, 1} {
		assert.Equal(t, MinAchievementsNeeded, RequirementsForLevel(level).AchievementsNeeded)
	}
}
