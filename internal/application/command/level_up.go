// Package command contains write operations.
package command

import (
	"context"

	"github.com/englishquest/quest-hub/internal/domain/progression"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
	"github.com/englishquest/quest-hub/pkg/logger"
	"github.com/englishquest/quest-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL UP COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LevelUpCommand claims the next level for a user.
type LevelUpCommand struct {
	UserID        string
	CorrelationID string
}

// LevelUpResult describes a successful level-up.
type LevelUpResult struct {
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`

	// Promoted is true when the user had no stored level before.
	Promoted bool `json:"promoted"`

	OldRank     progression.RankInfo `json:"old_rank"`
	NewRank     progression.RankInfo `json:"new_rank"`
	RankChanged bool                 `json:"rank_changed"`

	// Progression is evaluated at the new level.
	Progression progression.Snapshot `json:"progression"`
}

// LevelUpHandler re-checks the gate against fresh data and writes level+1.
type LevelUpHandler struct {
	users                user.Repository
	achievements         user.AchievementRepository
	cache                user.Cache
	publisher            shared.EventPublisher
	allowLegacyPromotion bool
	retrier              *retry.Retrier
	log                  *logger.Logger
}

// LevelUpOptions toggles optional behaviour of LevelUpHandler.
type LevelUpOptions struct {
	// AllowLegacyPromotion lets users without a stored level claim level 2.
	AllowLegacyPromotion bool
}

// NewLevelUpHandler creates the handler. cache and publisher may be nil.
func NewLevelUpHandler(
	users user.Repository,
	achievements user.AchievementRepository,
	cache user.Cache,
	publisher shared.EventPublisher,
	opts LevelUpOptions,
	log *logger.Logger,
) *LevelUpHandler {
	if log == nil {
		log = logger.Default()
	}
	return &LevelUpHandler{
		users:                users,
		achievements:         achievements,
		cache:                cache,
		publisher:            publisher,
		allowLegacyPromotion: opts.AllowLegacyPromotion,
		retrier:              retry.ConflictRetrier(shared.IsConflict),
		log:                  log.With(logger.Component("level_up")),
	}
}

// Handle performs the level-up. A concurrent write to the same user is
// retried against fresh data; if the gate no longer holds the result is
// shared.ErrLevelUpNotAllowed.
func (h *LevelUpHandler) Handle(ctx context.Context, cmd LevelUpCommand) (*LevelUpResult, error) {
	id, err := shared.NewUserID(cmd.UserID)
	if err != nil {
		return nil, err
	}

	var result *LevelUpResult
	err = h.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := h.attempt(ctx, id.String())
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, result.UserID); err != nil {
			h.log.Warn("failed to invalidate user cache", logger.UserID(result.UserID), logger.Err(err))
		}
	}

	h.publish(result, cmd.CorrelationID)

	h.log.Info("level up",
		logger.UserID(result.UserID),
		logger.ProgressLevel(result.NewLevel),
		logger.RankID(result.NewRank.ID),
		logger.Bool("promoted", result.Promoted),
	)

	return result, nil
}

func (h *LevelUpHandler) attempt(ctx context.Context, id string) (*LevelUpResult, error) {
	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	completed, err := h.achievements.ListCompleted(ctx, u.ID)
	if err != nil {
		return nil, shared.WrapError("command", "LevelUp", shared.ErrServiceUnavailable, "failed to load achievements", err)
	}

	stats := u.Stats(completed)
	if _, leveled := progression.LevelOf(stats); !leveled && !h.allowLegacyPromotion {
		return nil, shared.ErrLegacyPromotionDisabled
	}

	current := progression.AsLeveled(stats)
	if !progression.CanLevelUp(current) {
		return nil, shared.ErrLevelUpNotAllowed
	}

	next := progression.Leveled{Counters: current.Counters, Level: current.Level + 1}
	if err := h.users.SetLevel(ctx, u.ID, u.Level, next.Level); err != nil {
		return nil, err
	}

	oldRank := progression.ResolveRank(stats)
	newRank := progression.ResolveRank(next)

	return &LevelUpResult{
		UserID:      u.ID,
		OldLevel:    current.Level,
		NewLevel:    next.Level,
		Promoted:    !u.HasLevel(),
		OldRank:     oldRank,
		NewRank:     newRank,
		RankChanged: oldRank.ID != newRank.ID,
		Progression: progression.Evaluate(next),
	}, nil
}

func (h *LevelUpHandler) publish(r *LevelUpResult, correlationID string) {
	if h.publisher == nil {
		return
	}

	event := shared.NewLevelUpEvent(r.UserID, r.OldLevel, r.NewLevel, r.OldRank.ID, r.NewRank.ID, r.Progression.TotalScore)
	if correlationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(correlationID)
	}

	if err := h.publisher.Publish(event); err != nil {
		h.log.Error("failed to publish level up event", logger.UserID(r.UserID), logger.Err(err))
	}
}
