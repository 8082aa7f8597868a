package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReturnRepository implements ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// FindByID finds a return by ID
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Return, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate finds a return and locks its row
func (r *GormReturnRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Return, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *GormReturnRepository) first(query *gorm.DB) (*trade.Return, error) {
	var ret trade.Return
	if err := query.First(&ret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindAll lists returns matching the filter
func (r *GormReturnRepository) FindAll(ctx context.Context, filter trade.ReturnFilter) ([]trade.Return, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.Return{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.SaleID != nil {
		query = query.Where("sale_id = ?", *filter.SaleID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var returns []trade.Return
	if err := query.
		Order(returnSort.order(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&returns).Error; err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

// SumReturnedQuantity sums pending and approved quantities for a sale line
func (r *GormReturnRepository) SumReturnedQuantity(ctx context.Context, saleItemID, excludeReturnID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&trade.Return{}).
		Where("sale_item_id = ? AND status <> ?", saleItemID, string(trade.ReturnStatusRejected))
	if excludeReturnID != uuid.Nil {
		query = query.Where("id <> ?", excludeReturnID)
	}

	var sum decimal.Decimal
	if err := query.Select("COALESCE(SUM(quantity), 0)").Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Create inserts a new return
func (r *GormReturnRepository) Create(ctx context.Context, ret *trade.Return) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

// UpdateStatus writes a status transition as a compare-and-set on the stored
// status. When the row no longer holds previous, the return is re-read to
// report why.
func (r *GormReturnRepository) UpdateStatus(ctx context.Context, ret *trade.Return, previous trade.ReturnStatus) error {
	result := r.db.WithContext(ctx).
		Model(&trade.Return{}).
		Where("id = ? AND status = ?", ret.ID, string(previous)).
		Updates(map[string]interface{}{
			"status":           string(ret.Status),
			"rejection_reason": ret.RejectionReason,
			"approved_by":      ret.ApprovedBy,
			"approved_at":      ret.ApprovedAt,
			"rejected_by":      ret.RejectedBy,
			"rejected_at":      ret.RejectedAt,
			"version":          ret.Version,
			"updated_at":       ret.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	current, err := r.FindByID(ctx, ret.ID)
	if err != nil {
		return err
	}
	if current.IsApproved() {
		return trade.ErrReturnCannotRevert
	}
	return shared.NewConflictError("CONCURRENCY_CONFLICT", "Return was modified by another request")
}

// SaveWithLock persists quantity and reason changes guarded by the version
func (r *GormReturnRepository) SaveWithLock(ctx context.Context, ret *trade.Return) error {
	result := r.db.WithContext(ctx).
		Model(&trade.Return{}).
		Where("id = ? AND version = ? AND status <> ?", ret.ID, ret.Version-1, string(trade.ReturnStatusApproved)).
		Updates(map[string]interface{}{
			"quantity":   ret.Quantity,
			"reason":     ret.Reason,
			"version":    ret.Version,
			"updated_at": ret.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Return was modified by another transaction")
	}
	return nil
}

var _ trade.ReturnRepository = (*GormReturnRepository)(nil)
