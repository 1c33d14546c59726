package progression

// Counters are the raw, level-independent numbers a user has accumulated.
type Counters struct {
	// Points is the base progress currency, bonuses excluded.
	Points int `json:"points"`

	// GamesPlayed is the number of finished games.
	GamesPlayed int `json:"games_played"`

	// GamesWon is the number of won games. Expected <= GamesPlayed, not enforced.
	GamesWon int `json:"games_won"`

	// CompletedAchievementsCount is a count of achievements, not their XP.
	CompletedAchievementsCount int `json:"completed_achievements_count"`

	// AchievementsXP is the sum of XP rewards. Only TotalScore uses it.
	AchievementsXP int `json:"achievements_xp"`
}

// Stats is a progression snapshot: either Leveled or Legacy.
// The set of implementations is closed.
type Stats interface {
	// Raw returns the counters of the snapshot.
	Raw() Counters

	isStats()
}

// Leveled is a snapshot of a user record that carries a level.
type Leveled struct {
	Counters
	Level int `json:"level"`
}

// Legacy is a snapshot of a record that predates the level field.
type Legacy struct {
	Counters
}

func (s Leveled) Raw() Counters { return s.Counters }
func (s Legacy) Raw() Counters  { return s.Counters }

func (Leveled) isStats() {}
func (Legacy) isStats()  {}

// FromRecord picks the snapshot variant from an optional stored level.
func FromRecord(c Counters, level *int) Stats {
	if level == nil {
		return Legacy{Counters: c}
	}
	return Leveled{Counters: c, Level: *level}
}

// LevelOf returns the level of a snapshot and whether it has one.
func LevelOf(s Stats) (int, bool) {
	if l, ok := s.(Leveled); ok {
		return l.Level, true
	}
	return 0, false
}
