package progression

import "math"

// DimensionProgress is the per-dimension completion, each in [0, 100].
type DimensionProgress struct {
	Points       float64 `json:"points"`
	Games        float64 `json:"games"`
	Wins         float64 `json:"wins"`
	Achievements float64 `json:"achievements"`
}

// LevelProgressResult is the progress-bar tuple for leveled users.
type LevelProgressResult struct {
	// Percent is the floored bottleneck dimension, in [0, 100].
	Percent int `json:"percent"`

	Requirements LevelRequirements `json:"requirements"`
	Current      Counters          `json:"current"`
	Dimensions   DimensionProgress `json:"dimensions"`
}

// Heuristics for RankProgress.
const (
	rankGamesDivisor        = 30
	rankWinsDivisor         = 60
	rankAchievementsDivisor = 200

	rankMinGames        = 5
	rankMinWins         = 3
	rankMinAchievements = 2

	rankPointsWeight       = 0.5
	rankGamesWeight        = 0.2
	rankWinsWeight         = 0.2
	rankAchievementsWeight = 0.1
)

// LevelProgress computes progress toward the next level. Overall progress is
// the lowest of the four dimensions, so every requirement has to be close to
// done before the bar fills.
func LevelProgress(s Leveled) LevelProgressResult {
	req := RequirementsForLevel(s.Level)
	c := s.Counters

	dims := DimensionProgress{
		Points:       ratio(c.Points, req.PointsNeeded),
		Games:        ratio(c.GamesPlayed, req.GamesNeeded),
		Wins:         ratio(c.GamesWon, req.WinsNeeded),
		Achievements: ratio(c.CompletedAchievementsCount, req.AchievementsNeeded),
	}

	bottleneck := math.Min(math.Min(dims.Points, dims.Games), math.Min(dims.Wins, dims.Achievements))

	return LevelProgressResult{
		Percent:      int(math.Floor(bottleneck)),
		Requirements: req,
		Current:      c,
		Dimensions:   dims,
	}
}

// RankProgress computes progress toward the next rank tier for legacy
// snapshots as a weighted average of four estimated dimensions.
// It returns 100 at the last tier.
func RankProgress(s Legacy) int {
	idx := ResolveRankIndex(s)
	next, ok := NextRank(idx)
	if !ok {
		return 100
	}

	cur := RankAt(idx)
	gap := next.MinPoints - cur.MinPoints
	c := s.Counters

	gamesNeeded := max(rankMinGames, gap/rankGamesDivisor)
	winsNeeded := max(rankMinWins, gap/rankWinsDivisor)
	achievementsNeeded := max(rankMinAchievements, gap/rankAchievementsDivisor)

	weighted := rankPointsWeight*ratio(c.Points-cur.MinPoints, gap) +
		rankGamesWeight*ratio(c.GamesPlayed, gamesNeeded) +
		rankWinsWeight*ratio(c.GamesWon, winsNeeded) +
		rankAchievementsWeight*ratio(c.CompletedAchievementsCount, achievementsNeeded)

	return int(math.Floor(clampPercent(weighted)))
}

// Progress dispatches on the snapshot variant.
func Progress(s Stats) int {
	switch v := s.(type) {
	case Leveled:
		return LevelProgress(v).Percent
	case Legacy:
		return RankProgress(v)
	}
	return 0
}

// ratio returns 100*current/needed clamped to [0, 100]. It is exactly 100
// only when current >= needed (or needed is 0): above 2^53 the float quotient
// of needed-1 and needed rounds to 1, which would fill a bar the gate rejects.
func ratio(current, needed int) float64 {
	if current >= needed {
		return 100
	}
	return math.Min(clampPercent(100*float64(current)/float64(needed)), belowFull)
}

// belowFull is the largest percentage short of 100.
var belowFull = math.Nextafter(100, 0)

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
