package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInventoryRecord = "InventoryRecord"

// Event type constants
const (
	EventTypeInventoryCreated    = "InventoryCreated"
	EventTypeStockAdded          = "StockAdded"
	EventTypeStockRemoved        = "StockRemoved"
	EventTypeStockAdjusted       = "StockAdjusted"
	EventTypeAverageCostChanged  = "AverageCostChanged"
	EventTypeRecordStatusChanged = "InventoryRecordStatusChanged"
)

// stockEvent carries the fields shared by every stock mutation event
type stockEvent struct {
	shared.BaseDomainEvent
	InventoryID   uuid.UUID       `json:"inventory_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Note          string          `json:"note,omitempty"`
}

func newStockEvent(eventType string, r *InventoryRecord, c *StockChange) stockEvent {
	return stockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInventoryRecord, r.ID, uuid.Nil),
		InventoryID:     r.ID,
		ProductID:       r.ProductID,
		BranchID:        r.BranchID,
		Quantity:        c.Quantity,
		BalanceBefore:   c.BalanceBefore,
		BalanceAfter:    c.BalanceAfter,
		Note:            c.Note,
	}
}

// WithActor stamps the acting user on the event. The aggregate does not know
// who is calling, so the application layer sets it before publishing.
func (e *stockEvent) WithActor(actorID uuid.UUID) {
	e.Actor = actorID
}

// InventoryCreatedEvent is raised when a record is created for a product at a branch
type InventoryCreatedEvent struct {
	shared.BaseDomainEvent
	InventoryID  uuid.UUID       `json:"inventory_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	BranchID     uuid.UUID       `json:"branch_id"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

// NewInventoryCreatedEvent creates a new InventoryCreatedEvent
func NewInventoryCreatedEvent(r *InventoryRecord, actorID uuid.UUID) *InventoryCreatedEvent {
	return &InventoryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCreated, AggregateTypeInventoryRecord, r.ID, actorID),
		InventoryID:     r.ID,
		ProductID:       r.ProductID,
		BranchID:        r.BranchID,
		InitialStock:    r.StockCurrent,
	}
}

func (e *InventoryCreatedEvent) AuditMessage() string {
	return fmt.Sprintf("inventory created for product %s at branch %s with %s units", e.ProductID, e.BranchID, e.InitialStock)
}

// StockAddedEvent is raised when stock is added (receiving, returns, transfers in)
type StockAddedEvent struct {
	stockEvent
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// NewStockAddedEvent creates a new StockAddedEvent
func NewStockAddedEvent(r *InventoryRecord, c *StockChange) *StockAddedEvent {
	return &StockAddedEvent{stockEvent: newStockEvent(EventTypeStockAdded, r, c), UnitCost: c.UnitCost}
}

func (e *StockAddedEvent) AuditMessage() string {
	return fmt.Sprintf("added %s units to inventory %s (%s -> %s)", e.Quantity, e.InventoryID, e.BalanceBefore, e.BalanceAfter)
}

// StockRemovedEvent is raised when stock leaves a branch
type StockRemovedEvent struct {
	stockEvent
}

// NewStockRemovedEvent creates a new StockRemovedEvent
func NewStockRemovedEvent(r *InventoryRecord, c *StockChange) *StockRemovedEvent {
	return &StockRemovedEvent{stockEvent: newStockEvent(EventTypeStockRemoved, r, c)}
}

func (e *StockRemovedEvent) AuditMessage() string {
	return fmt.Sprintf("removed %s units from inventory %s (%s -> %s)", e.Quantity, e.InventoryID, e.BalanceBefore, e.BalanceAfter)
}

// StockAdjustedEvent is raised on manual corrections
type StockAdjustedEvent struct {
	stockEvent
	Delta decimal.Decimal `json:"delta"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(r *InventoryRecord, c *StockChange) *StockAdjustedEvent {
	return &StockAdjustedEvent{stockEvent: newStockEvent(EventTypeStockAdjusted, r, c), Delta: c.Delta()}
}

func (e *StockAdjustedEvent) AuditMessage() string {
	return fmt.Sprintf("adjusted inventory %s by %s (%s -> %s): %s", e.InventoryID, e.Delta, e.BalanceBefore, e.BalanceAfter, e.Note)
}

// AverageCostChangedEvent is raised when a receipt moves the weighted average cost
type AverageCostChangedEvent struct {
	shared.BaseDomainEvent
	InventoryID uuid.UUID       `json:"inventory_id"`
	OldCost     decimal.Decimal `json:"old_cost"`
	NewCost     decimal.Decimal `json:"new_cost"`
}

// NewAverageCostChangedEvent creates a new AverageCostChangedEvent
func NewAverageCostChangedEvent(r *InventoryRecord, oldCost, newCost decimal.Decimal) *AverageCostChangedEvent {
	return &AverageCostChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAverageCostChanged, AggregateTypeInventoryRecord, r.ID, uuid.Nil),
		InventoryID:     r.ID,
		OldCost:         oldCost,
		NewCost:         newCost,
	}
}

func (e *AverageCostChangedEvent) WithActor(actorID uuid.UUID) {
	e.Actor = actorID
}

// RecordStatusChangedEvent is raised when a record is deactivated or reactivated
type RecordStatusChangedEvent struct {
	shared.BaseDomainEvent
	InventoryID uuid.UUID    `json:"inventory_id"`
	Status      RecordStatus `json:"status"`
}

// NewRecordStatusChangedEvent creates a new RecordStatusChangedEvent
func NewRecordStatusChangedEvent(r *InventoryRecord, actorID uuid.UUID) *RecordStatusChangedEvent {
	return &RecordStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordStatusChanged, AggregateTypeInventoryRecord, r.ID, actorID),
		InventoryID:     r.ID,
		Status:          r.Status,
	}
}

func (e *RecordStatusChangedEvent) AuditMessage() string {
	return fmt.Sprintf("inventory %s is now %s", e.InventoryID, e.Status)
}

// ActorStamper is implemented by events raised inside the aggregate before
// the acting user is known.
type ActorStamper interface {
	WithActor(actorID uuid.UUID)
}
