package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CostPrecision is the number of decimal places kept for the moving average cost
const CostPrecision int32 = 4

// RecordStatus is the lifecycle status of an inventory record.
// Records referenced by returns are never deleted, only deactivated.
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "active"
	RecordStatusInactive RecordStatus = "inactive"
)

// IsValid returns true if the status is known
func (s RecordStatus) IsValid() bool {
	return s == RecordStatusActive || s == RecordStatusInactive
}

// InventoryRecord is the stock of one product held at one branch.
// It is the aggregate root for stock mutations; the composite identity is ProductID + BranchID.
type InventoryRecord struct {
	shared.BaseAggregateRoot
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_product_branch,priority:1"`
	BranchID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_record_product_branch,priority:2;index"`
	StockCurrent  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	StockMinimum  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	StockMaximum  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ReservedStock decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost   decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Notes         string           `gorm:"type:text"`
	Status        RecordStatus     `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// StockChange describes the effect of a single mutation, used to write the movement ledger.
type StockChange struct {
	Quantity      decimal.Decimal // absolute quantity moved
	UnitCost      decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	CostBefore    decimal.Decimal
	CostAfter     decimal.Decimal
	Note          string
}

// Delta returns the signed change in stock
func (c StockChange) Delta() decimal.Decimal {
	return c.BalanceAfter.Sub(c.BalanceBefore)
}

// NewInventoryRecord creates an empty active record for a product at a branch.
// Initial stock is added through AddStock so the cost and ledger stay consistent.
func NewInventoryRecord(productID, branchID uuid.UUID) (*InventoryRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product_id", "Product ID cannot be empty")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch_id", "Branch ID cannot be empty")
	}
	return &InventoryRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		BranchID:          branchID,
		StockCurrent:      decimal.Zero,
		ReservedStock:     decimal.Zero,
		AverageCost:       decimal.Zero,
		Status:            RecordStatusActive,
	}, nil
}

// IsActive returns true if the record accepts mutations
func (r *InventoryRecord) IsActive() bool {
	return r.Status == RecordStatusActive
}

// AvailableStock returns stock not reserved for pending orders
func (r *InventoryRecord) AvailableStock() decimal.Decimal {
	available := r.StockCurrent.Sub(r.ReservedStock)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// AddStock increases stock. When unitCost is given the average cost is
// recomputed as a quantity-weighted average of the existing and incoming units.
func (r *InventoryRecord) AddStock(quantity decimal.Decimal, unitCost *decimal.Decimal, note string) (*StockChange, error) {
	if err := r.ensureActive(); err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if unitCost != nil && unitCost.IsNegative() {
		return nil, shared.NewValidationError("unit_cost", "Unit cost cannot be negative")
	}

	change := &StockChange{
		Quantity:      quantity,
		UnitCost:      r.AverageCost,
		BalanceBefore: r.StockCurrent,
		CostBefore:    r.AverageCost,
		Note:          note,
	}

	newStock := r.StockCurrent.Add(quantity)
	if unitCost != nil {
		change.UnitCost = *unitCost
		r.AverageCost = WeightedAverageCost(r.StockCurrent, r.AverageCost, quantity, *unitCost)
	}
	r.StockCurrent = newStock
	r.appendNote(note)
	r.touch()

	change.BalanceAfter = r.StockCurrent
	change.CostAfter = r.AverageCost

	r.AddDomainEvent(NewStockAddedEvent(r, change))
	if !change.CostBefore.Equal(change.CostAfter) {
		r.AddDomainEvent(NewAverageCostChangedEvent(r, change.CostBefore, change.CostAfter))
	}
	return change, nil
}

// RemoveStock decreases stock. The average cost of the remaining units is unchanged.
func (r *InventoryRecord) RemoveStock(quantity decimal.Decimal, note string) (*StockChange, error) {
	if err := r.ensureActive(); err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if quantity.GreaterThan(r.StockCurrent) {
		return nil, NewInsufficientStockError(r.StockCurrent, quantity)
	}

	change := &StockChange{
		Quantity:      quantity,
		UnitCost:      r.AverageCost,
		BalanceBefore: r.StockCurrent,
		CostBefore:    r.AverageCost,
		CostAfter:     r.AverageCost,
		Note:          note,
	}
	r.StockCurrent = r.StockCurrent.Sub(quantity)
	r.appendNote(note)
	r.touch()
	change.BalanceAfter = r.StockCurrent

	r.AddDomainEvent(NewStockRemovedEvent(r, change))
	return change, nil
}

// AdjustStock applies a manual signed correction. A reason is mandatory.
func (r *InventoryRecord) AdjustStock(delta decimal.Decimal, reason string) (*StockChange, error) {
	if err := r.ensureActive(); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewValidationError("reason", "Adjustment reason is required")
	}
	if delta.IsZero() {
		return nil, shared.NewValidationError("delta", "Adjustment delta cannot be zero")
	}
	attempted := r.StockCurrent.Add(delta)
	if attempted.IsNegative() {
		return nil, NewNegativeStockError(r.StockCurrent, attempted)
	}

	change := &StockChange{
		Quantity:      delta.Abs(),
		UnitCost:      r.AverageCost,
		BalanceBefore: r.StockCurrent,
		BalanceAfter:  attempted,
		CostBefore:    r.AverageCost,
		CostAfter:     r.AverageCost,
		Note:          reason,
	}
	r.StockCurrent = attempted
	r.appendNote(reason)
	r.touch()

	r.AddDomainEvent(NewStockAdjustedEvent(r, change))
	return change, nil
}

// SetThresholds sets the branch-level minimum and maximum stock.
// A nil value clears the threshold so the product default applies.
func (r *InventoryRecord) SetThresholds(minimum, maximum *decimal.Decimal) error {
	if minimum != nil && minimum.IsNegative() {
		return shared.NewValidationError("stock_minimum", "Minimum stock cannot be negative")
	}
	if maximum != nil && maximum.IsNegative() {
		return shared.NewValidationError("stock_maximum", "Maximum stock cannot be negative")
	}
	if minimum != nil && maximum != nil && maximum.LessThan(*minimum) {
		return shared.NewValidationError("stock_maximum", "Maximum stock cannot be less than minimum stock")
	}
	r.StockMinimum = minimum
	r.StockMaximum = maximum
	r.touch()
	return nil
}

// Deactivate hides the record from default listings and blocks mutations
func (r *InventoryRecord) Deactivate(actorID uuid.UUID) error {
	if !r.IsActive() {
		return shared.NewConflictError("INVALID_STATE", "Inventory record is already inactive")
	}
	r.Status = RecordStatusInactive
	r.touch()
	r.AddDomainEvent(NewRecordStatusChangedEvent(r, actorID))
	return nil
}

// Activate re-enables a deactivated record
func (r *InventoryRecord) Activate(actorID uuid.UUID) error {
	if r.IsActive() {
		return shared.NewConflictError("INVALID_STATE", "Inventory record is already active")
	}
	r.Status = RecordStatusActive
	r.touch()
	r.AddDomainEvent(NewRecordStatusChangedEvent(r, actorID))
	return nil
}

func (r *InventoryRecord) ensureActive() error {
	if !r.IsActive() {
		return shared.NewConflictError("INVENTORY_INACTIVE", "Inventory record is inactive and cannot be modified")
	}
	return nil
}

func (r *InventoryRecord) appendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if r.Notes == "" {
		r.Notes = note
		return
	}
	r.Notes = r.Notes + "\n" + note
}

func (r *InventoryRecord) touch() {
	r.Touch()
	r.IncrementVersion()
}

// WeightedAverageCost returns (qty*avg + inQty*inCost) / (qty + inQty), or zero
// when the resulting quantity is not positive.
func WeightedAverageCost(quantity, averageCost, incomingQuantity, incomingCost decimal.Decimal) decimal.Decimal {
	total := quantity.Add(incomingQuantity)
	if !total.IsPositive() {
		return decimal.Zero
	}
	value := quantity.Mul(averageCost).Add(incomingQuantity.Mul(incomingCost))
	return value.Div(total).Round(CostPrecision)
}

// NewInsufficientStockError reports a removal larger than the stock on hand
func NewInsufficientStockError(available, requested decimal.Decimal) *shared.DomainError {
	return shared.NewConflictError("INSUFFICIENT_STOCK",
		fmt.Sprintf("insufficient stock: available: %s, requested: %s", available.String(), requested.String())).
		WithDetail("available", available.String()).
		WithDetail("requested", requested.String())
}

// NewNegativeStockError reports an adjustment that would leave stock below zero
func NewNegativeStockError(previous, attempted decimal.Decimal) *shared.DomainError {
	return shared.NewConflictError("NEGATIVE_STOCK_REJECTED",
		fmt.Sprintf("adjustment would leave negative stock: previous: %s, attempted: %s", previous.String(), attempted.String())).
		WithDetail("previous", previous.String()).
		WithDetail("attempted", attempted.String())
}
