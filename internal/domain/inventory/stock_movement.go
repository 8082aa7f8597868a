package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType represents the kind of stock movement
type MovementType string

const (
	MovementTypeInitial     MovementType = "INITIAL"
	MovementTypeInbound     MovementType = "INBOUND"
	MovementTypeOutbound    MovementType = "OUTBOUND"
	MovementTypeAdjustment  MovementType = "ADJUSTMENT"
	MovementTypeReturn      MovementType = "RETURN"
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
)

func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeInitial,
		MovementTypeInbound,
		MovementTypeOutbound,
		MovementTypeAdjustment,
		MovementTypeReturn,
		MovementTypeTransferIn,
		MovementTypeTransferOut:
		return true
	}
	return false
}

// SourceType identifies what caused a movement
type SourceType string

const (
	SourceTypeManual       SourceType = "MANUAL"
	SourceTypeInitialStock SourceType = "INITIAL_STOCK"
	SourceTypeReceipt      SourceType = "RECEIPT"
	SourceTypeSaleReturn   SourceType = "SALE_RETURN"
	SourceTypeTransfer     SourceType = "TRANSFER"
)

// StockMovement is an append-only ledger entry written in the same
// transaction as the mutation it describes. Corrections are new entries.
type StockMovement struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InventoryRecordID uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_record_time,priority:1"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	MovementType      MovementType    `gorm:"type:varchar(20);not null;index"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"` // always positive, direction given by balances
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason            string          `gorm:"type:text"`
	SourceType        SourceType      `gorm:"type:varchar(30);not null"`
	SourceID          string          `gorm:"type:varchar(64)"`
	OperatorID        *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt         time.Time       `gorm:"not null;index:idx_stock_movement_record_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// MovementSource ties a movement to its cause and operator
type MovementSource struct {
	Type       SourceType
	ID         string
	OperatorID uuid.UUID
}

// NewStockMovement builds a ledger entry from a mutation result
func NewStockMovement(record *InventoryRecord, movementType MovementType, change *StockChange, source MovementSource) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewValidationError("movement_type", "Invalid movement type")
	}
	if change == nil || !change.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Movement quantity must be positive")
	}
	m := &StockMovement{
		ID:                uuid.New(),
		InventoryRecordID: record.ID,
		ProductID:         record.ProductID,
		BranchID:          record.BranchID,
		MovementType:      movementType,
		Quantity:          change.Quantity,
		UnitCost:          change.UnitCost,
		BalanceBefore:     change.BalanceBefore,
		BalanceAfter:      change.BalanceAfter,
		Reason:            change.Note,
		SourceType:        source.Type,
		SourceID:          source.ID,
		CreatedAt:         time.Now(),
	}
	if source.OperatorID != uuid.Nil {
		op := source.OperatorID
		m.OperatorID = &op
	}
	return m, nil
}

// IsIncrease reports whether the movement added stock
func (m *StockMovement) IsIncrease() bool {
	return m.BalanceAfter.GreaterThan(m.BalanceBefore)
}

// TotalCost returns quantity times unit cost
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitCost)
}
