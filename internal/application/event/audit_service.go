package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/audit"
	"github.com/retail/backend/internal/domain/shared"
)

// AuditEntryResponse is one line of an aggregate's audit trail
type AuditEntryResponse struct {
	EventID    uuid.UUID  `json:"event_id"`
	EventType  string     `json:"event_type"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Message    string     `json:"message"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// AuditService reads the audit trail
type AuditService struct {
	repo audit.Repository
}

// NewAuditService creates an AuditService
func NewAuditService(repo audit.Repository) *AuditService {
	return &AuditService{repo: repo}
}

// Trail returns the audit lines of one aggregate, oldest first
func (s *AuditService) Trail(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]AuditEntryResponse, error) {
	if aggregateType == "" {
		return nil, shared.NewValidationError("aggregate_type", "Aggregate type is required")
	}
	if aggregateID == uuid.Nil {
		return nil, shared.NewValidationError("aggregate_id", "Aggregate ID is required")
	}

	logs, err := s.repo.FindByAggregate(ctx, aggregateType, aggregateID)
	if err != nil {
		return nil, err
	}
	out := make([]AuditEntryResponse, len(logs))
	for i, l := range logs {
		out[i] = AuditEntryResponse{
			EventID:    l.EventID,
			EventType:  l.EventType,
			ActorID:    l.ActorID,
			Message:    l.Message,
			OccurredAt: l.OccurredAt,
		}
	}
	return out, nil
}
