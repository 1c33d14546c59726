package progression

// Mode tells which rule set produced a Snapshot.
type Mode string

const (
	ModeLevel  Mode = "level"
	ModeLegacy Mode = "legacy"
)

// Snapshot bundles every engine output for one set of stats.
type Snapshot struct {
	Mode Mode     `json:"mode"`
	Rank RankInfo `json:"rank"`

	// NextRank is nil at the last tier.
	NextRank *RankInfo `json:"next_rank,omitempty"`

	// Level is the effective level: the stored one, or 1 for legacy records.
	Level int `json:"level"`

	// ProgressPercent comes from LevelProgress or RankProgress depending on Mode.
	ProgressPercent int `json:"progress_percent"`

	// Dimensions is set in level mode only.
	Dimensions *DimensionProgress `json:"dimensions,omitempty"`

	Requirements      LevelRequirements `json:"requirements"`
	Current           Counters          `json:"current"`
	CanLevelUp        bool              `json:"can_level_up"`
	TotalScore        int               `json:"total_score"`
	WeightedScore     float64           `json:"weighted_score,omitempty"`
	MaxReachableLevel int               `json:"max_reachable_level"`
}

// Evaluate runs the whole engine over s.
// Legacy snapshots are gated against level 1, which is where a legacy user
// lands on their first promotion.
func Evaluate(s Stats) Snapshot {
	c := s.Raw()
	idx := ResolveRankIndex(s)

	snap := Snapshot{
		Rank:              RankAt(idx),
		Current:           c,
		TotalScore:        TotalScore(c),
		MaxReachableLevel: MaxReachableLevel(c),
	}
	if next, ok := NextRank(idx); ok {
		snap.NextRank = &next
	}

	switch v := s.(type) {
	case Leveled:
		lp := LevelProgress(v)
		snap.Mode = ModeLevel
		snap.Level = v.Level
		snap.ProgressPercent = lp.Percent
		snap.Dimensions = &lp.Dimensions
		snap.Requirements = lp.Requirements
		snap.CanLevelUp = CanLevelUp(v)
	case Legacy:
		promoted := Promote(v)
		snap.Mode = ModeLegacy
		snap.Level = promoted.Level
		snap.ProgressPercent = RankProgress(v)
		snap.Requirements = RequirementsForLevel(promoted.Level)
		snap.CanLevelUp = CanLevelUp(promoted)
		snap.WeightedScore = WeightedScore(c)
	}

	return snap
}

// Promote turns a legacy snapshot into a level-1 snapshot with the same counters.
func Promote(s Legacy) Leveled {
	return Leveled{Counters: s.Counters, Level: 1}
}

// AsLeveled returns s as a Leveled snapshot, promoting legacy ones.
func AsLeveled(s Stats) Leveled {
	switch v := s.(type) {
	case Leveled:
		return v
	case Legacy:
		return Promote(v)
	}
	return Leveled{Counters: s.Raw(), Level: 1}
}
