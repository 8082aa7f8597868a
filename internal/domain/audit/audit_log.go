package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
)

// Log is one line of the audit trail, written after the change it
// describes has been committed.
type Log struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string     `gorm:"type:varchar(64);not null;index"`
	AggregateType string     `gorm:"type:varchar(64);not null"`
	AggregateID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID       *uuid.UUID `gorm:"type:uuid;index"`
	Message       string     `gorm:"type:text;not null"`
	OccurredAt    time.Time  `gorm:"not null"`
	CreatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Log) TableName() string {
	return "audit_logs"
}

// NewLogFromEvent builds an audit line from an auditable event
func NewLogFromEvent(event shared.AuditableEvent) *Log {
	l := &Log{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		Message:       event.AuditMessage(),
		OccurredAt:    event.OccurredAt(),
		CreatedAt:     time.Now(),
	}
	if actor := event.ActorID(); actor != uuid.Nil {
		l.ActorID = &actor
	}
	return l
}

// Repository persists the audit trail
type Repository interface {
	// Create stores a line; storing the same event twice is a no-op
	Create(ctx context.Context, log *Log) error
	FindByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]Log, error)
}
