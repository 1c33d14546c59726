package progression

import "math"

// Requirement curve. Every threshold grows by GrowthBase per level.
const (
	GrowthBase = 1.5

	BasePointsNeeded       = 200
	BaseGamesNeeded        = 10
	BaseWinsNeeded         = 6
	BaseAchievementsNeeded = 3

	// MinAchievementsNeeded is the floor for the achievement requirement and
	// the exact requirement at level 1.
	MinAchievementsNeeded = 2
)

// LevelRequirements are the four thresholds a user must meet to leave a level.
type LevelRequirements struct {
	PointsNeeded       int `json:"points_needed"`
	GamesNeeded        int `json:"games_needed"`
	WinsNeeded         int `json:"wins_needed"`
	AchievementsNeeded int `json:"achievements_needed"`
}

// RequirementsForLevel returns the thresholds for leaving level.
// The multiplier is 1.5^(level-1) in float64 and each field is floored once.
func RequirementsForLevel(level int) LevelRequirements {
	m := math.Pow(GrowthBase, float64(level-1))

	achievements := MinAchievementsNeeded
	if level > 1 {
		achievements = max(MinAchievementsNeeded, floorInt(BaseAchievementsNeeded*m))
	}

	return LevelRequirements{
		PointsNeeded:       floorInt(BasePointsNeeded * m),
		GamesNeeded:        floorInt(BaseGamesNeeded * m),
		WinsNeeded:         floorInt(BaseWinsNeeded * m),
		AchievementsNeeded: achievements,
	}
}

// Met reports whether c satisfies all four thresholds.
func (r LevelRequirements) Met(c Counters) bool {
	return c.Points >= r.PointsNeeded &&
		c.GamesPlayed >= r.GamesNeeded &&
		c.GamesWon >= r.WinsNeeded &&
		c.CompletedAchievementsCount >= r.AchievementsNeeded
}

// floorInt floors f and saturates at the int range, since converting an
// out-of-range float to int is implementation-defined in Go.
func floorInt(f float64) int {
	f = math.Floor(f)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}
