package shared

import (
	"strings"

	"github.com/google/uuid"
)

// UserID is the UUID of a platform user.
type UserID string

// NewUserID parses and normalizes a user ID.
func NewUserID(raw string) (UserID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", WrapError("user", "Validate", ErrInvalidID, "invalid user ID", err)
	}
	return UserID(id.String()), nil
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// Pagination limits for list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampLimit normalizes a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
