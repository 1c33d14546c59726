// Package query contains read operations.
package query

import (
	"context"
	"time"

	"github.com/englishquest/quest-hub/internal/domain/progression"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
	"github.com/englishquest/quest-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESSION QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressionQuery asks for a user's rank, level and progress.
type GetProgressionQuery struct {
	UserID string
}

// ProgressionDTO is the progression view of one user.
type ProgressionDTO struct {
	UserID                string               `json:"user_id"`
	DisplayName           string               `json:"display_name"`
	CompletedAchievements int                  `json:"completed_achievements"`
	Progression           progression.Snapshot `json:"progression"`
	EvaluatedAt           time.Time            `json:"evaluated_at"`
}

// GetProgressionHandler evaluates stored stats with the progression engine.
type GetProgressionHandler struct {
	users        user.Repository
	achievements user.AchievementRepository
	cache        user.Cache
	cacheTTL     time.Duration
	log          *logger.Logger
}

// NewGetProgressionHandler creates the handler. cache may be nil.
func NewGetProgressionHandler(
	users user.Repository,
	achievements user.AchievementRepository,
	cache user.Cache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *GetProgressionHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetProgressionHandler{
		users:        users,
		achievements: achievements,
		cache:        cache,
		cacheTTL:     cacheTTL,
		log:          log.With(logger.Component("get_progression")),
	}
}

// Handle loads the user and evaluates the engine.
func (h *GetProgressionHandler) Handle(ctx context.Context, q GetProgressionQuery) (*ProgressionDTO, error) {
	id, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	u, err := h.loadUser(ctx, id.String())
	if err != nil {
		return nil, err
	}

	completed, err := h.achievements.ListCompleted(ctx, u.ID)
	if err != nil {
		return nil, shared.WrapError("query", "GetProgression", shared.ErrServiceUnavailable, "failed to load achievements", err)
	}

	snap := progression.Evaluate(u.Stats(completed))

	return &ProgressionDTO{
		UserID:                u.ID,
		DisplayName:           u.DisplayName,
		CompletedAchievements: len(completed),
		Progression:           snap,
		EvaluatedAt:           time.Now().UTC(),
	}, nil
}

// loadUser is cache-aside: cache failures degrade to a database read.
func (h *GetProgressionHandler) loadUser(ctx context.Context, id string) (*user.User, error) {
	if h.cache != nil {
		u, err := h.cache.Get(ctx, id)
		switch {
		case err == nil && u != nil:
			return u, nil
		case err != nil && !shared.IsNotFound(err):
			h.log.Warn("user cache read failed", logger.UserID(id), logger.Err(err))
		}
	}

	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.WrapError("query", "GetProgression", shared.ErrServiceUnavailable, "failed to load user", err)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, u, h.cacheTTL); err != nil {
			h.log.Warn("failed to cache user", logger.UserID(id), logger.Err(err))
		}
	}

	return u, nil
}
