// Package user holds the user record the progression engine reads from.
// Persistence lives in infrastructure; this package only defines the shape
// and the contracts.
package user

import (
	"time"

	"github.com/englishquest/quest-hub/internal/domain/progression"
)

// User is the stored progression record of a player.
type User struct {
	ID          string
	DisplayName string

	// Points is the base currency of progress, bonuses excluded.
	Points      int
	GamesPlayed int
	GamesWon    int

	// Level is nil for records created before levels existed.
	Level *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLevel reports whether the record carries a level.
func (u *User) HasLevel() bool {
	return u.Level != nil
}

// EffectiveLevel returns the stored level, or 1 for legacy records.
func (u *User) EffectiveLevel() int {
	if u.Level == nil {
		return 1
	}
	return *u.Level
}

// CompletedAchievement is a finished achievement with its XP reward.
type CompletedAchievement struct {
	ID            int64
	UserID        string
	AchievementID string
	Title         string
	RewardXP      int
	CompletedAt   time.Time
}

// XPReward implements progression.Rewarded.
func (a CompletedAchievement) XPReward() int {
	return a.RewardXP
}

// Counters builds the engine counters from the record and its achievements.
func (u *User) Counters(completedCount, achievementsXP int) progression.Counters {
	return progression.Counters{
		Points:                     u.Points,
		GamesPlayed:                u.GamesPlayed,
		GamesWon:                   u.GamesWon,
		CompletedAchievementsCount: completedCount,
		AchievementsXP:             achievementsXP,
	}
}

// Stats builds the engine snapshot. Records without a level become Legacy.
func (u *User) Stats(completed []CompletedAchievement) progression.Stats {
	c := u.Counters(len(completed), progression.SumXP(completed))
	return progression.FromRecord(c, u.Level)
}

// IntPtr is a small helper for optional levels.
func IntPtr(v int) *int {
	return &v
}
