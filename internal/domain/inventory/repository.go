package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StatusFilter selects records by status. Listings must pass it explicitly;
// there is no implicit scope hiding inactive records.
type StatusFilter string

const (
	StatusFilterActive   StatusFilter = "active"
	StatusFilterInactive StatusFilter = "inactive"
	StatusFilterAll      StatusFilter = "all"
)

// IsValid returns true if the filter is known
func (f StatusFilter) IsValid() bool {
	return f == StatusFilterActive || f == StatusFilterInactive || f == StatusFilterAll
}

// RecordFilter narrows inventory listings
type RecordFilter struct {
	shared.Filter
	Status    StatusFilter
	BranchID  *uuid.UUID
	ProductID *uuid.UUID
}

// LowStockRecord is a record whose stock is at or below its effective minimum
type LowStockRecord struct {
	InventoryRecord
	ProductMinStock *decimal.Decimal `gorm:"column:product_min_stock"`
}

// Level classifies the row
func (l *LowStockRecord) Level() StockLevel {
	return ClassifyStockLevel(&l.InventoryRecord, l.ProductMinStock)
}

// InventoryRecordRepository defines persistence for inventory records
type InventoryRecordRepository interface {
	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryRecord, error)

	// FindByIDForUpdate finds a record and locks its row until the surrounding
	// transaction ends. Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*InventoryRecord, error)

	// FindByProductAndBranch finds the record for a product at a branch
	FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (*InventoryRecord, error)

	// FindByProductAndBranchForUpdate is the locking variant of FindByProductAndBranch
	FindByProductAndBranchForUpdate(ctx context.Context, productID, branchID uuid.UUID) (*InventoryRecord, error)

	// FindAll lists records matching the filter
	FindAll(ctx context.Context, filter RecordFilter) ([]InventoryRecord, int64, error)

	// FindLowStock lists active records at or below their effective minimum,
	// using the product-level minimum when the record has none.
	FindLowStock(ctx context.Context, branchID *uuid.UUID, filter shared.Filter) ([]LowStockRecord, int64, error)

	// Create inserts a new record. Returns ALREADY_EXISTS on a duplicate (product, branch).
	Create(ctx context.Context, record *InventoryRecord) error

	// SaveWithLock persists a mutated record, failing when another transaction
	// changed it since it was read.
	SaveWithLock(ctx context.Context, record *InventoryRecord) error
}

// MovementFilter narrows ledger listings
type MovementFilter struct {
	shared.Filter
	MovementType *MovementType
	From         *time.Time
	To           *time.Time
}

// StockMovementRepository persists the append-only stock ledger
type StockMovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	FindByInventoryRecord(ctx context.Context, recordID uuid.UUID, filter MovementFilter) ([]StockMovement, int64, error)
}
