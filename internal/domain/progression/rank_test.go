package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankTable_Ordering(t *testing.T) {
	ranks := Ranks()
	require.Len(t, ranks, 10)
	assert.Equal(t, 0, ranks[0].MinPoints)

	for i := 1; i < len(ranks); i++ {
		assert.Greater(t, ranks[i].MinPoints, ranks[i-1].MinPoints, "tier %d", i)
	}

	want := []int{0, 100, 300, 600, 1000, 1500, 2200, 3200, 4500, 6000}
	for i, r := range ranks {
		assert.Equal(t, want[i], r.MinPoints)
	}
}

func TestRankTable_RanksReturnsCopy(t *testing.T) {
	ranks := Ranks()
	ranks[0].MinPoints = 999

	assert.Equal(t, 0, RankAt(0).MinPoints)
}

func TestResolveRank_Leveled(t *testing.T) {
	for level := 1; level <= 9; level++ {
		got := ResolveRank(Leveled{Level: level})
		assert.Equal(t, RankAt(level-1), got, "level %d", level)
	}

	assert.Equal(t, "myth", ResolveRank(Leveled{Level: 10}).ID)
	assert.Equal(t, "newcomer", ResolveRank(Leveled{Level: 0}).ID)
	assert.Equal(t, "newcomer", ResolveRank(Leveled{Level: -4}).ID)
}

func TestResolveRank_LevelIgnoresPoints(t *testing.T) {
	got := ResolveRank(Leveled{Level: 3})
	assert.Equal(t, "student", got.ID)
	assert.Equal(t, 2, IndexOf(got.ID))

	rich := ResolveRank(Leveled{Level: 3, Counters: Counters{Points: 100000, GamesPlayed: 500}})
	assert.Equal(t, "student", rich.ID)

	assert.Equal(t, "myth", ResolveRank(Leveled{Level: 12}).ID)
}

func TestResolveRank_Legacy(t *testing.T) {
	tests := []struct {
		name     string
		counters Counters
		wantID   string
	}{
		{"empty", Counters{}, "newcomer"},
		{"capped by points", Counters{Points: 100, GamesPlayed: 50, GamesWon: 50}, "learner"},
		{"composite below cap", Counters{Points: 1000}, "scholar"},
		{"top tier", Counters{Points: 6000}, "myth"},
		{"just below top", Counters{Points: 4999, GamesPlayed: 100}, "legend"},
		{"no points", Counters{GamesPlayed: 1000, GamesWon: 1000}, "newcomer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantID, ResolveRank(Legacy{Counters: tt.counters}).ID)
		})
	}
}

func TestWeightedScore(t *testing.T) {
	c := Counters{Points: 100, GamesPlayed: 2, GamesWon: 1, CompletedAchievementsCount: 1}
	// composite = 100 + 20 + 20 + 15 = 155, cap = 120
	assert.InDelta(t, 120.0, WeightedScore(c), 1e-9)

	c = Counters{Points: 1000, GamesPlayed: 1}
	assert.InDelta(t, 1010.0, WeightedScore(c), 1e-9)
}

func TestNextRank(t *testing.T) {
	next, ok := NextRank(0)
	require.True(t, ok)
	assert.Equal(t, "learner", next.ID)

	_, ok = NextRank(RankCount - 1)
	assert.False(t, ok)
	assert.True(t, IsMaxRank(RankCount-1))
	assert.Equal(t, -1, IndexOf("nope"))
}

func TestFromRecord(t *testing.T) {
	c := Counters{Points: 10}

	_, ok := FromRecord(c, nil).(Legacy)
	assert.True(t, ok)

	lvl := 4
	s := FromRecord(c, &lvl)
	level, ok := LevelOf(s)
	assert.True(t, ok)
	assert.Equal(t, 4, level)
	assert.Equal(t, c, s.Raw())
}
