package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/domain/trade"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository reads sales using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its items
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.first(r.db.WithContext(ctx).Preload("Items").Where("id = ?", id))
}

// FindByIDForUpdate finds a sale with its items and locks the sale row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Where("id = ?", id))
}

func (r *GormSaleRepository) first(query *gorm.DB) (*trade.Sale, error) {
	var sale trade.Sale
	if err := query.First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// Create inserts a sale with its items; used by seeding
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
