package command

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
	"github.com/englishquest/quest-hub/internal/infrastructure/persistence/memory"
	"github.com/englishquest/quest-hub/pkg/logger"
)

const userID = "11111111-1111-1111-1111-111111111111"

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) last() shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// readyUser meets every requirement of level 1 and level 2 points, games and wins.
func readyUser(level *int) (*memory.Store, user.User) {
	u := user.User{ID: userID, DisplayName: "Ann", Points: 320, GamesPlayed: 16, GamesWon: 10, Level: level}
	s := memory.NewStore()
	s.Put(u)
	s.Complete(user.CompletedAchievement{UserID: userID, AchievementID: "a1", RewardXP: 10})
	s.Complete(user.CompletedAchievement{UserID: userID, AchievementID: "a2", RewardXP: 10})
	return s, u
}

func newHandler(s *memory.Store, cache user.Cache, pub shared.EventPublisher, allowLegacy bool) *LevelUpHandler {
	return NewLevelUpHandler(s, s, cache, pub, LevelUpOptions{AllowLegacyPromotion: allowLegacy}, logger.NewFromConfig("error", io.Discard))
}

func TestLevelUp_Leveled(t *testing.T) {
	store, _ := readyUser(user.IntPtr(1))
	cache := memory.NewUserCache()
	pub := &recordingPublisher{}
	h := newHandler(store, cache, pub, false)

	require.NoError(t, cache.Set(context.Background(), &user.User{ID: userID}, 0))

	res, err := h.Handle(context.Background(), LevelUpCommand{UserID: userID, CorrelationID: "req-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.False(t, res.Promoted)
	assert.Equal(t, "newcomer", res.OldRank.ID)
	assert.Equal(t, "learner", res.NewRank.ID)
	assert.True(t, res.RankChanged)
	assert.Equal(t, 2, res.Progression.Level)

	stored, err := store.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, *stored.Level)

	assert.False(t, cache.Has(userID))

	event, ok := pub.last().(shared.LevelUpEvent)
	require.True(t, ok)
	assert.Equal(t, shared.EventLevelUp, event.EventType())
	assert.Equal(t, 2, event.NewLevel)
	assert.Equal(t, "req-1", event.CorrelationID)
	assert.Equal(t, res.Progression.TotalScore, event.TotalScore)
}

func TestLevelUp_RequirementsNotMet(t *testing.T) {
	// Level 2 needs 300 points, 15 games, 9 wins and 4 achievements.
	store, _ := readyUser(user.IntPtr(2))
	pub := &recordingPublisher{}
	h := newHandler(store, nil, pub, false)

	_, err := h.Handle(context.Background(), LevelUpCommand{UserID: userID})
	assert.ErrorIs(t, err, shared.ErrLevelUpNotAllowed)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Nil(t, pub.last())

	stored, err := store.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, *stored.Level)
}

func TestLevelUp_Legacy(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		store, _ := readyUser(nil)
		h := newHandler(store, nil, nil, false)

		_, err := h.Handle(context.Background(), LevelUpCommand{UserID: userID})
		assert.ErrorIs(t, err, shared.ErrLegacyPromotionDisabled)
	})

	t.Run("promoted", func(t *testing.T) {
		store, _ := readyUser(nil)
		h := newHandler(store, nil, nil, true)

		res, err := h.Handle(context.Background(), LevelUpCommand{UserID: userID})
		require.NoError(t, err)
		assert.True(t, res.Promoted)
		assert.Equal(t, 1, res.OldLevel)
		assert.Equal(t, 2, res.NewLevel)

		stored, err := store.GetByID(context.Background(), userID)
		require.NoError(t, err)
		require.NotNil(t, stored.Level)
		assert.Equal(t, 2, *stored.Level)
	})
}

func TestLevelUp_InvalidAndMissing(t *testing.T) {
	store, _ := readyUser(user.IntPtr(1))
	h := newHandler(store, nil, nil, false)

	_, err := h.Handle(context.Background(), LevelUpCommand{UserID: "nope"})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), LevelUpCommand{UserID: "22222222-2222-2222-2222-222222222222"})
	assert.True(t, shared.IsNotFound(err))
}

func TestLevelUp_ConcurrentWriteIsReevaluated(t *testing.T) {
	store, u := readyUser(user.IntPtr(1))
	h := newHandler(store, nil, nil, false)

	// Another request levels the user up between our read and our write.
	// After the retry the user is at level 2 and no longer eligible.
	var once sync.Once
	store.BeforeSetLevel = func(string) {
		once.Do(func() {
			bumped := u
			bumped.Level = user.IntPtr(2)
			store.Put(bumped)
		})
	}

	_, err := h.Handle(context.Background(), LevelUpCommand{UserID: userID})
	assert.ErrorIs(t, err, shared.ErrLevelUpNotAllowed)

	stored, err := store.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, *stored.Level)
}

func TestLevelUp_RetryReadsFreshVariant(t *testing.T) {
	store, u := readyUser(user.IntPtr(1))
	h := newHandler(store, nil, nil, false)

	// A concurrent write clears the level. The retry sees a legacy record.
	var once sync.Once
	store.BeforeSetLevel = func(string) {
		once.Do(func() {
			legacy := u
			legacy.Level = nil
			store.Put(legacy)
		})
	}

	res, err := h.Handle(context.Background(), LevelUpCommand{UserID: userID})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, shared.ErrLegacyPromotionDisabled)
}
