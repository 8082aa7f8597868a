package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRecordRepository implements InventoryRecordRepository using GORM
type GormInventoryRecordRepository struct {
	db *gorm.DB
}

// NewGormInventoryRecordRepository creates a new GormInventoryRecordRepository
func NewGormInventoryRecordRepository(db *gorm.DB) *GormInventoryRecordRepository {
	return &GormInventoryRecordRepository{db: db}
}

// FindByID finds an inventory record by its ID
func (r *GormInventoryRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a record and takes a row lock (SELECT ... FOR UPDATE)
func (r *GormInventoryRecordRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

// FindByProductAndBranch finds the record of a product at a branch
func (r *GormInventoryRecordRepository) FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.first(r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID))
}

// FindByProductAndBranchForUpdate finds the record of a product at a branch and locks it
func (r *GormInventoryRecordRepository) FindByProductAndBranchForUpdate(ctx context.Context, productID, branchID uuid.UUID) (*inventory.InventoryRecord, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND branch_id = ?", productID, branchID))
}

func (r *GormInventoryRecordRepository) first(query *gorm.DB) (*inventory.InventoryRecord, error) {
	var record inventory.InventoryRecord
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindAll lists records matching the filter
func (r *GormInventoryRecordRepository) FindAll(ctx context.Context, filter inventory.RecordFilter) ([]inventory.InventoryRecord, int64, error) {
	if !filter.Status.IsValid() {
		return nil, 0, shared.NewValidationError("status", "Status filter is required")
	}

	query := r.db.WithContext(ctx).Model(&inventory.InventoryRecord{})
	if filter.Status != inventory.StatusFilterAll {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []inventory.InventoryRecord
	if err := query.
		Order(inventorySort.order(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// lowStockCondition mirrors inventory.ClassifyStockLevel: a record is low when
// its stock is at or below the record minimum, falling back to the product
// minimum, then to zero.
const lowStockCondition = "inventory_records.stock_current <= COALESCE(inventory_records.stock_minimum, products.min_stock, 0)"

// FindLowStock lists active records at or below their effective minimum, lowest stock first
func (r *GormInventoryRecordRepository) FindLowStock(ctx context.Context, branchID *uuid.UUID, filter shared.Filter) ([]inventory.LowStockRecord, int64, error) {
	query := r.db.WithContext(ctx).
		Table("inventory_records").
		Joins("LEFT JOIN products ON products.id = inventory_records.product_id").
		Where("inventory_records.status = ?", string(inventory.RecordStatusActive)).
		Where(lowStockCondition)
	if branchID != nil {
		query = query.Where("inventory_records.branch_id = ?", *branchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []inventory.LowStockRecord
	if err := query.
		Select("inventory_records.*, products.min_stock AS product_min_stock").
		Order("inventory_records.stock_current ASC").
		Order("inventory_records.id ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Create inserts a new record. A second record for the same product and
// branch violates the unique index and is reported as ALREADY_EXISTS.
func (r *GormInventoryRecordRepository) Create(ctx context.Context, record *inventory.InventoryRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewConflictError("ALREADY_EXISTS", "inventory already exists for this product at this branch")
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormInventoryRecordRepository) SaveWithLock(ctx context.Context, record *inventory.InventoryRecord) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"stock_current":  record.StockCurrent,
			"stock_minimum":  record.StockMinimum,
			"stock_maximum":  record.StockMaximum,
			"reserved_stock": record.ReservedStock,
			"average_cost":   record.AverageCost,
			"notes":          record.Notes,
			"status":         string(record.Status),
			"version":        record.Version,
			"updated_at":     record.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Inventory record was modified by another transaction")
	}
	return nil
}

var _ inventory.InventoryRecordRepository = (*GormInventoryRecordRepository)(nil)
