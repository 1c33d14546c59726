package progression

import "math"

// Weights of the legacy composite score.
const (
	legacyGamePlayedWeight  = 10
	legacyGameWonWeight     = 20
	legacyAchievementWeight = 15
	legacyPointsCap         = 1.2
)

// ResolveRank maps a snapshot to its rank tier.
//
// Leveled snapshots map level N to tier N-1, capped at the last tier; levels
// below 1 map to the first tier. Points are ignored. Legacy snapshots use
// WeightedScore against the tier thresholds.
func ResolveRank(s Stats) RankInfo {
	return RankAt(ResolveRankIndex(s))
}

// ResolveRankIndex is ResolveRank returning the table index.
func ResolveRankIndex(s Stats) int {
	switch v := s.(type) {
	case Leveled:
		return clampRankIndex(v.Level - 1)
	case Legacy:
		return RankForScore(WeightedScore(v.Counters))
	}
	return 0
}

// WeightedScore is the legacy composite used when no level is recorded:
// min(points + played*10 + won*20 + achievements*15, points*1.2).
func WeightedScore(c Counters) float64 {
	composite := float64(c.Points) +
		float64(c.GamesPlayed)*legacyGamePlayedWeight +
		float64(c.GamesWon)*legacyGameWonWeight +
		float64(c.CompletedAchievementsCount)*legacyAchievementWeight

	return math.Min(composite, float64(c.Points)*legacyPointsCap)
}
