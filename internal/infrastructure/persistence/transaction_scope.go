package persistence

import (
	"context"

	appinv "github.com/retail/backend/internal/application/inventory"
	"github.com/retail/backend/internal/domain/catalog"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Row locks taken through the scoped repositories are held until Execute returns.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, rolling back when it returns an error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) InventoryRepo() inventory.InventoryRecordRepository {
	return NewGormInventoryRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) BranchRepo() partner.BranchRepository {
	return NewGormBranchRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleRepo() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) ReturnRepo() trade.ReturnRepository {
	return NewGormReturnRepository(r.tx)
}

var (
	_ appinv.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
