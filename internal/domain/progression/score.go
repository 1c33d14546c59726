package progression

// Score weights for the leaderboard composite.
const (
	ScorePerWin        = 50
	ScorePerGame       = 10
	WinRateBonusFactor = 1000
)

// TotalScore is the leaderboard composite:
// points + won*50 + played*10 + floor(won/played*1000) + achievementsXP.
// It is for display only; level-up eligibility uses Points.
func TotalScore(c Counters) int {
	return c.Points +
		c.GamesWon*ScorePerWin +
		c.GamesPlayed*ScorePerGame +
		WinRateBonus(c.GamesWon, c.GamesPlayed) +
		c.AchievementsXP
}

// WinRateBonus returns floor(won/played*1000), or 0 when nothing was played.
func WinRateBonus(won, played int) int {
	if played == 0 {
		return 0
	}
	return floorInt(float64(won) / float64(played) * WinRateBonusFactor)
}

// Rewarded is anything that grants XP when completed.
type Rewarded interface {
	XPReward() int
}

// SumXP adds up the XP rewards of completed achievements.
func SumXP[A Rewarded](completed []A) int {
	total := 0
	for _, a := range completed {
		total += a.XPReward()
	}
	return total
}

// XP is a bare reward amount that satisfies Rewarded.
type XP int

// XPReward implements Rewarded.
func (x XP) XPReward() int { return int(x) }
