package progression

// ══════════════════════════════════════════════════════════════════════════════
// RANK TABLE
// ══════════════════════════════════════════════════════════════════════════════

// RankInfo describes a single rank tier.
type RankInfo struct {
	// ID is a unique slug, e.g. "student".
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Icon is an emoji shown next to the badge.
	Icon string `json:"icon"`

	// MinPoints is the weighted-score threshold used by the legacy resolver.
	MinPoints int `json:"min_points"`

	// Color is a presentation token for the UI.
	Color string `json:"color"`

	// Description is a short flavour text.
	Description string `json:"description"`
}

// rankTable is ordered by MinPoints, strictly increasing, starting at 0.
var rankTable = [...]RankInfo{
	{ID: "newcomer", Name: "Newcomer", Icon: "🌱", MinPoints: 0, Color: "gray", Description: "Just opened the first book"},
	{ID: "learner", Name: "Learner", Icon: "📘", MinPoints: 100, Color: "green", Description: "Knows the basics"},
	{ID: "student", Name: "Student", Icon: "🎒", MinPoints: 300, Color: "teal", Description: "Studies every day"},
	{ID: "speaker", Name: "Speaker", Icon: "🗣️", MinPoints: 600, Color: "blue", Description: "Can hold a conversation"},
	{ID: "scholar", Name: "Scholar", Icon: "🎓", MinPoints: 1000, Color: "indigo", Description: "Reads without a dictionary"},
	{ID: "expert", Name: "Expert", Icon: "🧠", MinPoints: 1500, Color: "purple", Description: "Handles idioms with ease"},
	{ID: "master", Name: "Master", Icon: "🏅", MinPoints: 2200, Color: "orange", Description: "Teaches others"},
	{ID: "champion", Name: "Champion", Icon: "🏆", MinPoints: 3200, Color: "red", Description: "Wins more than loses"},
	{ID: "legend", Name: "Legend", Icon: "👑", MinPoints: 4500, Color: "gold", Description: "Known across the leaderboard"},
	{ID: "myth", Name: "Myth", Icon: "🐉", MinPoints: 6000, Color: "rainbow", Description: "Nobody is sure they are real"},
}

// RankCount is the number of tiers in the rank table.
const RankCount = len(rankTable)

// Ranks returns a copy of the rank table, lowest tier first.
func Ranks() []RankInfo {
	out := make([]RankInfo, RankCount)
	copy(out, rankTable[:])
	return out
}

// RankAt returns the tier at index, clamped to the table bounds.
func RankAt(index int) RankInfo {
	return rankTable[clampRankIndex(index)]
}

// IndexOf returns the table index of the rank with the given ID, or -1.
func IndexOf(id string) int {
	for i := range rankTable {
		if rankTable[i].ID == id {
			return i
		}
	}
	return -1
}

// NextRank returns the tier after index. ok is false when index is the last tier.
func NextRank(index int) (RankInfo, bool) {
	i := clampRankIndex(index)
	if i >= RankCount-1 {
		return RankInfo{}, false
	}
	return rankTable[i+1], true
}

// RankForScore returns the index of the last tier whose MinPoints <= score.
func RankForScore(score float64) int {
	idx := 0
	for i := range rankTable {
		if float64(rankTable[i].MinPoints) <= score {
			idx = i
		}
	}
	return idx
}

// IsMaxRank reports whether index is the last tier.
func IsMaxRank(index int) bool {
	return index >= RankCount-1
}

func clampRankIndex(index int) int {
	if index < 0 {
		return 0
	}
	if index >= RankCount {
		return RankCount - 1
	}
	return index
}
