// Package event holds application-level domain event handlers.
package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/audit"
	"github.com/retail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditTrailHandler writes every auditable event to the audit log. It
// subscribes to all event types and skips events with no audit message.
type AuditTrailHandler struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewAuditTrailHandler creates an AuditTrailHandler
func NewAuditTrailHandler(repo audit.Repository, logger *zap.Logger) *AuditTrailHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditTrailHandler{repo: repo, logger: logger}
}

// EventTypes returns nil so the handler receives every event
func (h *AuditTrailHandler) EventTypes() []string {
	return nil
}

// Handle persists the event's audit line
func (h *AuditTrailHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	auditable, ok := event.(shared.AuditableEvent)
	if !ok {
		h.logger.Debug("Event has no audit message, skipping",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return nil
	}

	line := audit.NewLogFromEvent(auditable)
	if err := h.repo.Create(ctx, line); err != nil {
		return fmt.Errorf("failed to write audit log for event %s: %w", event.EventID(), err)
	}

	h.logger.Info("Audit",
		zap.String("event_type", line.EventType),
		zap.String("aggregate_type", line.AggregateType),
		zap.String("aggregate_id", line.AggregateID.String()),
		zap.Stringp("actor_id", actorString(line.ActorID)),
		zap.String("message", line.Message),
	)
	return nil
}

func actorString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

var _ shared.EventHandler = (*AuditTrailHandler)(nil)
