package trade

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeReturn = "Return"

// Event type constants
const (
	EventTypeReturnCreated  = "ReturnCreated"
	EventTypeReturnApproved = "ReturnApproved"
	EventTypeReturnRejected = "ReturnRejected"
	EventTypeReturnReopened = "ReturnReopened"
	EventTypeReturnUpdated  = "ReturnUpdated"
)

// ReturnEvent is raised on every return lifecycle change
type ReturnEvent struct {
	shared.BaseDomainEvent
	ReturnID        uuid.UUID       `json:"return_id"`
	SaleID          uuid.UUID       `json:"sale_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	BranchID        uuid.UUID       `json:"branch_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Status          ReturnStatus    `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

func newReturnEvent(eventType string, r *Return, actorID uuid.UUID) *ReturnEvent {
	return &ReturnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeReturn, r.ID, actorID),
		ReturnID:        r.ID,
		SaleID:          r.SaleID,
		ProductID:       r.ProductID,
		BranchID:        r.BranchID,
		Quantity:        r.Quantity,
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
	}
}

// NewReturnCreatedEvent creates a ReturnCreated event
func NewReturnCreatedEvent(r *Return, actorID uuid.UUID) *ReturnEvent {
	return newReturnEvent(EventTypeReturnCreated, r, actorID)
}

// NewReturnApprovedEvent creates a ReturnApproved event
func NewReturnApprovedEvent(r *Return, actorID uuid.UUID) *ReturnEvent {
	return newReturnEvent(EventTypeReturnApproved, r, actorID)
}

// NewReturnRejectedEvent creates a ReturnRejected event
func NewReturnRejectedEvent(r *Return, actorID uuid.UUID) *ReturnEvent {
	return newReturnEvent(EventTypeReturnRejected, r, actorID)
}

// NewReturnReopenedEvent creates a ReturnReopened event
func NewReturnReopenedEvent(r *Return, actorID uuid.UUID) *ReturnEvent {
	return newReturnEvent(EventTypeReturnReopened, r, actorID)
}

// NewReturnUpdatedEvent creates a ReturnUpdated event
func NewReturnUpdatedEvent(r *Return, actorID uuid.UUID) *ReturnEvent {
	return newReturnEvent(EventTypeReturnUpdated, r, actorID)
}

func (e *ReturnEvent) AuditMessage() string {
	switch e.Type {
	case EventTypeReturnCreated:
		return fmt.Sprintf("return %s created for %s units of product %s (sale %s)", e.ReturnID, e.Quantity, e.ProductID, e.SaleID)
	case EventTypeReturnApproved:
		return fmt.Sprintf("return %s approved; %s units credited to branch %s", e.ReturnID, e.Quantity, e.BranchID)
	case EventTypeReturnRejected:
		return fmt.Sprintf("return %s rejected: %s", e.ReturnID, e.RejectionReason)
	case EventTypeReturnReopened:
		return fmt.Sprintf("return %s reopened for review", e.ReturnID)
	default:
		return fmt.Sprintf("return %s updated (quantity %s)", e.ReturnID, e.Quantity)
	}
}
