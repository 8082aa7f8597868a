package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PublishDomainEvents publishes the pending events of the given aggregates and
// clears them. It must only be called after the transaction committed.
// Events raised before the actor was known are stamped with actorID.
// Publish failures are logged and never returned to the caller.
func PublishDomainEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, actorID uuid.UUID, roots ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, root := range roots {
		if root == nil {
			continue
		}
		for _, event := range root.GetDomainEvents() {
			if stamper, ok := event.(inventory.ActorStamper); ok && event.ActorID() == uuid.Nil {
				stamper.WithActor(actorID)
			}
			events = append(events, event)
		}
		root.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
