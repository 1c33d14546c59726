package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureLevelUp, nil))
	assert.True(t, ff.IsEnabled(FeatureLeaderboardCache, nil))
	assert.False(t, ff.IsEnabled("unknown.feature", nil))
	assert.Len(t, ff.Features(), 4)
}

func TestFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_PROGRESSION_LEVEL_UP", "false")
	t.Setenv("FEATURE_LEADERBOARD_CACHE", "0")

	ff := LoadFeatureFlags()
	assert.False(t, ff.IsEnabled(FeatureLevelUp, nil))
	assert.False(t, ff.IsEnabled(FeatureLeaderboardCache, nil))
}

func TestFeatureFlags_RolloutIsStable(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureLevelUp, 50))

	enabled := 0
	for i := 0; i < 1000; i++ {
		ctx := &FeatureContext{UserID: fmt.Sprintf("user-%d", i)}
		first := ff.IsEnabled(FeatureLevelUp, ctx)
		assert.Equal(t, first, ff.IsEnabled(FeatureLevelUp, ctx))
		if first {
			enabled++
		}
	}

	assert.Greater(t, enabled, 250)
	assert.Less(t, enabled, 750)
}

func TestFeatureFlags_OverridesAndAdmin(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.DisableFeature(FeatureLevelUp))

	assert.False(t, ff.IsEnabled(FeatureLevelUp, &FeatureContext{UserID: "u1"}))
	assert.True(t, ff.IsEnabled(FeatureLevelUp, &FeatureContext{UserID: "u1", IsAdmin: true}))

	ff.SetUserOverride("u1", FeatureLevelUp, true)
	assert.True(t, ff.IsEnabled(FeatureLevelUp, &FeatureContext{UserID: "u1"}))
	assert.False(t, ff.IsEnabled(FeatureLevelUp, &FeatureContext{UserID: "u2"}))
}

func TestFeatureFlags_SetRolloutErrors(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("nope", 10), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureLevelUp, 101), ErrInvalidRolloutPercent)
}

func TestFeatureFlags_NilSafe(t *testing.T) {
	var ff *FeatureFlags
	assert.False(t, ff.IsEnabled(FeatureLevelUp, nil))
}
