package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// The ledger is append-only: there is no update or delete.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByInventoryRecord lists the movements of a record
func (r *GormStockMovementRepository) FindByInventoryRecord(ctx context.Context, recordID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("inventory_record_id = ?", recordID)
	if filter.MovementType != nil {
		query = query.Where("movement_type = ?", string(*filter.MovementType))
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movements []inventory.StockMovement
	if err := query.
		Order(movementSort.order(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
