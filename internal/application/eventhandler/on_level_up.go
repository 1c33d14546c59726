// Package eventhandler reacts to domain events.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
)

// OnLevelUpHandler refreshes the user's leaderboard entry after a level-up.
type OnLevelUpHandler struct {
	users        user.Repository
	achievements user.AchievementRepository
	board        leaderboard.Cache
	timeout      time.Duration
	logger       *slog.Logger
}

// NewOnLevelUpHandler creates the handler. board may be nil, in which case
// the handler only logs.
func NewOnLevelUpHandler(
	users user.Repository,
	achievements user.AchievementRepository,
	board leaderboard.Cache,
	logger *slog.Logger,
) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLevelUpHandler{
		users:        users,
		achievements: achievements,
		board:        board,
		timeout:      5 * time.Second,
		logger:       logger.With("handler", "on_level_up"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.logger.Warn("received unexpected event", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("user levelled up",
		"user_id", e.UserID,
		"old_level", e.OldLevel,
		"new_level", e.NewLevel,
		"rank_changed", e.RankChanged(),
		"new_rank_id", e.NewRankID,
	)

	if h.board == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	u, err := h.users.GetByID(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", e.UserID, err)
	}

	summaries, err := h.achievements.SummaryByUsers(ctx, []string{u.ID})
	if err != nil {
		return fmt.Errorf("summarize achievements of %s: %w", u.ID, err)
	}

	if err := h.board.Upsert(ctx, leaderboard.NewEntry(u, summaries[u.ID])); err != nil {
		return fmt.Errorf("update leaderboard entry of %s: %w", u.ID, err)
	}

	return nil
}
