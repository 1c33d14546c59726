package progression

// CanLevelUp reports whether s meets every requirement of its current level.
// It does not change anything; promoting the user is the caller's job.
func CanLevelUp(s Leveled) bool {
	return RequirementsForLevel(s.Level).Met(s.Counters)
}

// MaxSimulatedLevel bounds MaxReachableLevel.
const MaxSimulatedLevel = 300

// MaxReachableLevel starts at level 1 and keeps levelling up while the
// counters meet the requirements. It returns the first level whose
// requirements are not met, or MaxSimulatedLevel if the ceiling is hit.
func MaxReachableLevel(c Counters) int {
	level := 1
	for level < MaxSimulatedLevel && RequirementsForLevel(level).Met(c) {
		level++
	}
	return level
}
