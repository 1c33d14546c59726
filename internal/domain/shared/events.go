package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

const (
	EventLevelUp EventType = "progress.level_up"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventID returns a unique ID of this occurrence.
	EventID() string

	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler handles a domain event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventID implements Event interface.
func (e BaseEvent) EventID() string { return e.ID }

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// LevelUpEvent is emitted after a user's level was incremented.
type LevelUpEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	OldLevel   int    `json:"old_level"`
	NewLevel   int    `json:"new_level"`
	OldRankID  string `json:"old_rank_id"`
	NewRankID  string `json:"new_rank_id"`
	TotalScore int    `json:"total_score"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"old_level":   e.OldLevel,
		"new_level":   e.NewLevel,
		"old_rank_id": e.OldRankID,
		"new_rank_id": e.NewRankID,
		"total_score": e.TotalScore,
	}
}

// RankChanged reports whether the level-up moved the user to another tier.
func (e LevelUpEvent) RankChanged() bool {
	return e.OldRankID != e.NewRankID
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int, oldRankID, newRankID string, totalScore int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent:  NewBaseEvent(EventLevelUp, userID),
		UserID:     userID,
		OldLevel:   oldLevel,
		NewLevel:   newLevel,
		OldRankID:  oldRankID,
		NewRankID:  newRankID,
		TotalScore: totalScore,
	}
}
