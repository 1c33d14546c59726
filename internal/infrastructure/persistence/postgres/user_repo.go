package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/englishquest/quest-hub/internal/domain/shared"
	"github.com/englishquest/quest-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const userColumns = `id, display_name, points, games_played, games_won, level, created_at, updated_at`

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

var _ user.Repository = (*UserRepository)(nil)

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUser(r.conn.QueryRow(ctx, query, id))
}

// Create inserts a user. Used by seeding and tests.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, display_name, points, games_played, games_won, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := r.conn.Exec(ctx, query,
		u.ID, u.DisplayName, u.Points, u.GamesPlayed, u.GamesWon, u.Level, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("user", "Create", shared.ErrAlreadyExists, "user already exists", err)
		}
		if IsCheckViolation(err) {
			return shared.WrapError("user", "Create", shared.ErrValidation, "user counters out of range", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// SetLevel writes newLevel inside a transaction, guarded by the level read
// earlier. A nil expected matches records that have no level yet.
func (r *UserRepository) SetLevel(ctx context.Context, id string, expected *int, newLevel int) error {
	if newLevel < 1 {
		return shared.ErrInvalidLevel
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var current *int
		err := tx.QueryRow(ctx, `SELECT level FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if IsNoRows(err) {
			return shared.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		if !sameLevel(current, expected) {
			return shared.ErrLevelConflict
		}

		tag, err := tx.Exec(ctx, `
			UPDATE users SET level = $1, updated_at = $2
			WHERE id = $3 AND level IS NOT DISTINCT FROM $4
		`, newLevel, time.Now().UTC(), id, expected)
		if err != nil {
			return fmt.Errorf("failed to update level: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrLevelConflict
		}

		return nil
	})
}

// List returns users ordered by ID.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.conn.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var level *int

	err := row.Scan(
		&u.ID,
		&u.DisplayName,
		&u.Points,
		&u.GamesPlayed,
		&u.GamesWon,
		&level,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Level = level
	return &u, nil
}

func sameLevel(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements user.AchievementRepository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

var _ user.AchievementRepository = (*AchievementRepository)(nil)

// ListCompleted returns a user's completed achievements, oldest first.
func (r *AchievementRepository) ListCompleted(ctx context.Context, userID string) ([]user.CompletedAchievement, error) {
	query := `
		SELECT id, user_id, achievement_id, title, xp_reward, completed_at
		FROM completed_achievements
		WHERE user_id = $1
		ORDER BY completed_at, id
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	var result []user.CompletedAchievement
	for rows.Next() {
		var a user.CompletedAchievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.AchievementID, &a.Title, &a.RewardXP, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		result = append(result, a)
	}

	return result, rows.Err()
}

// Record stores a completed achievement. Completing the same achievement twice
// is a no-op.
func (r *AchievementRepository) Record(ctx context.Context, a user.CompletedAchievement) error {
	query := `
		INSERT INTO completed_achievements (user_id, achievement_id, title, xp_reward, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`

	completedAt := a.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	if _, err := r.conn.Exec(ctx, query, a.UserID, a.AchievementID, a.Title, a.RewardXP, completedAt); err != nil {
		return fmt.Errorf("failed to record achievement: %w", err)
	}
	return nil
}

// SummaryByUsers returns completed counts and XP sums for the given users.
// Users without achievements are absent from the result.
func (r *AchievementRepository) SummaryByUsers(ctx context.Context, userIDs []string) (map[string]user.AchievementSummary, error) {
	result := make(map[string]user.AchievementSummary, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(userIDs))
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT user_id, COUNT(*), COALESCE(SUM(xp_reward), 0)
		FROM completed_achievements
		WHERE user_id IN (%s)
		GROUP BY user_id
	`, strings.Join(placeholders, ", "))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize achievements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var s user.AchievementSummary
		if err := rows.Scan(&id, &s.Count, &s.XP); err != nil {
			return nil, fmt.Errorf("failed to scan achievement summary: %w", err)
		}
		result[id] = s
	}

	return result, rows.Err()
}
