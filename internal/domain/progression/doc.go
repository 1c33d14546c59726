// Package progression contains the progression engine of English Quest.
//
// The engine turns a snapshot of raw user counters (points, games played,
// games won, completed achievements) into:
//
//   - a rank tier from the fixed RankTable (ResolveRank)
//   - exponentially scaling level-up requirements (RequirementsForLevel)
//   - a bounded 0-100 progress percentage (LevelProgress, RankProgress)
//   - a level-up gate (CanLevelUp)
//   - a leaderboard score (TotalScore) and the sum of achievement XP (SumXP)
//   - the highest level the counters could reach (MaxReachableLevel)
//
// # Stats variants
//
// A snapshot is either Leveled (the user record has a level) or Legacy (the
// record predates the level field). The two shapes follow different rules:
//
//	stats := progression.FromRecord(counters, user.Level)
//	switch s := stats.(type) {
//	case progression.Leveled:
//	    res := progression.LevelProgress(s)
//	case progression.Legacy:
//	    pct := progression.RankProgress(s)
//	}
//
// Every function here is pure: no I/O, no shared mutable state. The only
// package-level data is the rank table, which is never modified after init.
// Inputs are not validated; callers that need validation do it before
// building a snapshot.
package progression
