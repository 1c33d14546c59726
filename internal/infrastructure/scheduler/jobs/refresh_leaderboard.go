// Package jobs contains the scheduled jobs of the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/englishquest/quest-hub/internal/domain/leaderboard"
	"github.com/englishquest/quest-hub/pkg/logger"
)

// LeaderboardRebuilder recomputes the ranking from storage and refreshes
// the cache. query.GetLeaderboardHandler satisfies it.
type LeaderboardRebuilder interface {
	Rebuild(ctx context.Context) (*leaderboard.Ranking, error)
}

// RefreshLeaderboardName is the scheduler name of RefreshLeaderboardJob.
const RefreshLeaderboardName = "refresh_leaderboard"

// RefreshLeaderboardJob rebuilds the cached leaderboard so reads between
// level-ups also see point and game changes made elsewhere.
type RefreshLeaderboardJob struct {
	rebuilder LeaderboardRebuilder
	timeout   time.Duration
	log       *logger.Logger
}

// NewRefreshLeaderboardJob creates the job. A zero timeout means 1 minute.
func NewRefreshLeaderboardJob(rebuilder LeaderboardRebuilder, timeout time.Duration, log *logger.Logger) *RefreshLeaderboardJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if log == nil {
		log = logger.Default()
	}
	return &RefreshLeaderboardJob{
		rebuilder: rebuilder,
		timeout:   timeout,
		log:       log.With(logger.Component("refresh_leaderboard")),
	}
}

// Name implements scheduler.Job.
func (j *RefreshLeaderboardJob) Name() string {
	return RefreshLeaderboardName
}

// Run implements scheduler.Job.
func (j *RefreshLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	ranking, err := j.rebuilder.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild leaderboard: %w", err)
	}

	j.log.Debug("leaderboard refreshed", logger.Int("entries", ranking.Count()))
	return nil
}
