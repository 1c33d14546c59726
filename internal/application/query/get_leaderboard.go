package query

import (
	"context"
	"errors"
	"time"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
	"github.com/englishquest/quest-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery asks for the top of the leaderboard.
type GetLeaderboardQuery struct {
	// Limit is clamped to [1, shared.MaxPageSize]; 0 means default.
	Limit int
}

// Leaderboard sources.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

// LeaderboardDTO is one page of the leaderboard.
type LeaderboardDTO struct {
	Entries     []leaderboard.Entry `json:"entries"`
	Source      string              `json:"source"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// GetLeaderboardHandler serves the leaderboard from cache, rebuilding it
// from storage when the cache is cold.
type GetLeaderboardHandler struct {
	users        user.Repository
	achievements user.AchievementRepository
	cache        leaderboard.Cache
	cacheTTL     time.Duration
	cachedSize   int
	batchSize    int
	log          *logger.Logger
}

// NewGetLeaderboardHandler creates the handler. cache may be nil.
// cachedSize is how many top entries are kept in the cache.
func NewGetLeaderboardHandler(
	users user.Repository,
	achievements user.AchievementRepository,
	cache leaderboard.Cache,
	cacheTTL time.Duration,
	cachedSize int,
	log *logger.Logger,
) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	if cachedSize < shared.MaxPageSize {
		cachedSize = shared.MaxPageSize
	}
	return &GetLeaderboardHandler{
		users:        users,
		achievements: achievements,
		cache:        cache,
		cacheTTL:     cacheTTL,
		cachedSize:   cachedSize,
		batchSize:    500,
		log:          log.With(logger.Component("get_leaderboard")),
	}
}

// Handle returns the top entries.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardDTO, error) {
	limit := shared.ClampLimit(q.Limit)

	if h.cache != nil {
		entries, err := h.cache.Top(ctx, limit)
		if err == nil {
			return &LeaderboardDTO{Entries: entries, Source: SourceCache, GeneratedAt: time.Now().UTC()}, nil
		}
		if !errors.Is(err, leaderboard.ErrNotCached) {
			h.log.Warn("leaderboard cache read failed", logger.Err(err))
		}
	}

	ranking, err := h.Rebuild(ctx)
	if err != nil {
		return nil, err
	}

	return &LeaderboardDTO{
		Entries:     ranking.Top(limit),
		Source:      SourceDatabase,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Rebuild scores every user and refreshes the cache.
func (h *GetLeaderboardHandler) Rebuild(ctx context.Context) (*leaderboard.Ranking, error) {
	start := time.Now()

	var entries []leaderboard.Entry
	for offset := 0; ; offset += h.batchSize {
		users, err := h.users.List(ctx, offset, h.batchSize)
		if err != nil {
			return nil, shared.WrapError("query", "RebuildLeaderboard", shared.ErrServiceUnavailable, "failed to list users", err)
		}
		if len(users) == 0 {
			break
		}

		ids := make([]string, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		summaries, err := h.achievements.SummaryByUsers(ctx, ids)
		if err != nil {
			return nil, shared.WrapError("query", "RebuildLeaderboard", shared.ErrServiceUnavailable, "failed to summarize achievements", err)
		}

		for _, u := range users {
			entries = append(entries, leaderboard.NewEntry(u, summaries[u.ID]))
		}

		if len(users) < h.batchSize {
			break
		}
	}

	ranking := leaderboard.NewRanking(entries)

	if h.cache != nil {
		if err := h.cache.Replace(ctx, ranking.Top(h.cachedSize), h.cacheTTL); err != nil {
			h.log.Warn("failed to cache leaderboard", logger.Err(err))
		}
	}

	h.log.Info("leaderboard rebuilt",
		logger.Int("entries", ranking.Count()),
		logger.Latency(time.Since(start)),
	)

	return ranking, nil
}
