package user

import (
	"context"
	"time"
)

// Repository reads and updates user records.
type Repository interface {
	// GetByID returns a user by ID.
	// Returns shared.ErrUserNotFound if there is no such user.
	GetByID(ctx context.Context, id string) (*User, error)

	// SetLevel writes newLevel if the stored level still equals expected
	// (nil meaning "no level yet"). Returns shared.ErrLevelConflict otherwise.
	SetLevel(ctx context.Context, id string, expected *int, newLevel int) error

	// List returns users ordered by ID, for leaderboard rebuilds.
	List(ctx context.Context, offset, limit int) ([]*User, error)
}

// AchievementRepository reads completed achievements.
type AchievementRepository interface {
	// ListCompleted returns every completed achievement of a user.
	ListCompleted(ctx context.Context, userID string) ([]CompletedAchievement, error)

	// SummaryByUsers returns completed counts and XP sums per user.
	SummaryByUsers(ctx context.Context, userIDs []string) (map[string]AchievementSummary, error)
}

// AchievementSummary is the aggregate the engine needs from achievements.
type AchievementSummary struct {
	Count int
	XP    int
}

// Cache keeps user records keyed by user ID. Any write to the record must be
// followed by Invalidate. Get reports a miss with an error matching
// shared.ErrNotFound; any other error is a cache failure.
type Cache interface {
	Get(ctx context.Context, id string) (*User, error)
	Set(ctx context.Context, u *User, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
}
