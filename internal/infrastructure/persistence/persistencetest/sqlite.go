// Package persistencetest provides database fixtures for tests.
package persistencetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/catalog"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/domain/trade"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory SQLite database with the full schema.
// The pool holds a single connection, so transactions are serialized; code
// under test must do all in-transaction reads through the transaction.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), persistence.GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(persistence.Models()...))
	return db
}

// Fixtures creates reference data the inventory and return flows read
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
}

// NewFixtures creates a Fixtures bound to db
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

// Branch creates an active branch with the given code
func (f *Fixtures) Branch(code string) *partner.Branch {
	f.t.Helper()
	branch, err := partner.NewBranch(code, "Branch "+code)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormBranchRepository(f.db).Save(context.Background(), branch))
	return branch
}

// InactiveBranch creates a closed branch
func (f *Fixtures) InactiveBranch(code string) *partner.Branch {
	f.t.Helper()
	branch := f.Branch(code)
	branch.Status = partner.BranchStatusInactive
	require.NoError(f.t, persistence.NewGormBranchRepository(f.db).Save(context.Background(), branch))
	return branch
}

// Product creates a product, optionally with a catalog minimum stock
func (f *Fixtures) Product(sku string, minStock *decimal.Decimal) *catalog.Product {
	f.t.Helper()
	product, err := catalog.NewProduct(sku, "Product "+sku)
	require.NoError(f.t, err)
	if minStock != nil {
		require.NoError(f.t, product.SetMinStock(*minStock))
	}
	require.NoError(f.t, persistence.NewGormProductRepository(f.db).Save(context.Background(), product))
	return product
}

// Sale creates a sale of quantity units of product at branch
func (f *Fixtures) Sale(branchID, customerID, productID uuid.UUID, quantity int64) *trade.Sale {
	f.t.Helper()
	sale := trade.NewSale(branchID, customerID, trade.SaleItem{
		ProductID: productID,
		Quantity:  decimal.NewFromInt(quantity),
		UnitPrice: decimal.NewFromInt(10),
	})
	require.NoError(f.t, persistence.NewGormSaleRepository(f.db).Create(context.Background(), sale))
	return sale
}
