package persistence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/retail/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, productID, branchID uuid.UUID, stock int64) *inventory.InventoryRecord {
	t.Helper()
	record, err := inventory.NewInventoryRecord(productID, branchID)
	require.NoError(t, err)
	if stock > 0 {
		cost := decimal.NewFromInt(5)
		_, err = record.AddStock(decimal.NewFromInt(stock), &cost, "")
		require.NoError(t, err)
		record.Version = 1
	}
	record.ClearDomainEvents()
	return record
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestGormInventoryRecordRepository_CreateAndFind(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := persistence.NewGormInventoryRecordRepository(db)
	ctx := context.Background()

	record := newRecord(t, uuid.New(), uuid.New(), 10)
	require.NoError(t, repo.Create(ctx, record))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ProductID, found.ProductID)
		assert.True(t, found.StockCurrent.Equal(decimal.NewFromInt(10)))
		assert.True(t, found.AverageCost.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, inventory.RecordStatusActive, found.Status)
	})

	t.Run("finds by product and branch", func(t *testing.T) {
		found, err := repo.FindByProductAndBranchForUpdate(ctx, record.ProductID, record.BranchID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
	})

	t.Run("missing record maps to not found", func(t *testing.T) {
		_, err := repo.FindByProductAndBranch(ctx, record.ProductID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByIDForUpdate(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate product and branch is rejected", func(t *testing.T) {
		dup := newRecord(t, record.ProductID, record.BranchID, 0)
		err := repo.Create(ctx, dup)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		assert.Equal(t, shared.KindConflict, domainErr.Kind)
	})
}

func TestGormInventoryRecordRepository_SaveWithLock(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := persistence.NewGormInventoryRecordRepository(db)
	ctx := context.Background()

	record := newRecord(t, uuid.New(), uuid.New(), 10)
	require.NoError(t, repo.Create(ctx, record))

	first, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)

	_, err = first.RemoveStock(decimal.NewFromInt(4), "damaged")
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, first))

	_, err = stale.RemoveStock(decimal.NewFromInt(4), "damaged again")
	require.NoError(t, err)
	err = repo.SaveWithLock(ctx, stale)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "OPTIMISTIC_LOCK_FAILED", domainErr.Code)

	current, err := repo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, current.StockCurrent.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, 2, current.Version)
	assert.Equal(t, "damaged", current.Notes)
}

func TestGormInventoryRecordRepository_FindAll(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := persistence.NewGormInventoryRecordRepository(db)
	ctx := context.Background()

	branchID := uuid.New()
	active := newRecord(t, uuid.New(), branchID, 3)
	inactive := newRecord(t, uuid.New(), branchID, 7)
	inactive.Status = inventory.RecordStatusInactive
	elsewhere := newRecord(t, uuid.New(), uuid.New(), 1)
	for _, r := range []*inventory.InventoryRecord{active, inactive, elsewhere} {
		require.NoError(t, repo.Create(ctx, r))
	}

	tests := []struct {
		name   string
		filter inventory.RecordFilter
		want   int64
	}{
		{"active only", inventory.RecordFilter{Status: inventory.StatusFilterActive}, 2},
		{"inactive only", inventory.RecordFilter{Status: inventory.StatusFilterInactive}, 1},
		{"all statuses", inventory.RecordFilter{Status: inventory.StatusFilterAll}, 3},
		{"all at branch", inventory.RecordFilter{Status: inventory.StatusFilterAll, BranchID: &branchID}, 2},
		{"by product", inventory.RecordFilter{Status: inventory.StatusFilterAll, ProductID: &inactive.ProductID}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, records, int(tt.want))
		})
	}

	t.Run("sorted by stock ascending", func(t *testing.T) {
		filter := inventory.RecordFilter{Status: inventory.StatusFilterAll}
		filter.OrderBy = "stock_current"
		filter.OrderDir = "asc"
		records, _, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, elsewhere.ID, records[0].ID)
		assert.Equal(t, inactive.ID, records[2].ID)
	})

	t.Run("missing status filter is rejected", func(t *testing.T) {
		_, _, err := repo.FindAll(ctx, inventory.RecordFilter{})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.KindValidation, domainErr.Kind)
	})
}

func TestGormInventoryRecordRepository_FindLowStock(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	fixtures := persistencetest.NewFixtures(t, db)
	repo := persistence.NewGormInventoryRecordRepository(db)
	ctx := context.Background()

	branch := fixtures.Branch("BR-001")
	other := fixtures.Branch("BR-002")
	withCatalogMin := fixtures.Product("SKU-A", decPtr(5))
	withoutMin := fixtures.Product("SKU-B", nil)
	plenty := fixtures.Product("SKU-C", decPtr(2))

	// record minimum 10 overrides catalog minimum 5
	overridden := newRecord(t, withCatalogMin.ID, branch.ID, 8)
	require.NoError(t, overridden.SetThresholds(decPtr(10), nil))
	// no minimum anywhere: only empty stock counts as low
	empty := newRecord(t, withoutMin.ID, branch.ID, 0)
	fine := newRecord(t, plenty.ID, branch.ID, 9)
	// catalog minimum applies
	fallback := newRecord(t, withCatalogMin.ID, other.ID, 5)
	deactivated := newRecord(t, withoutMin.ID, other.ID, 0)
	deactivated.Status = inventory.RecordStatusInactive

	for _, r := range []*inventory.InventoryRecord{overridden, empty, fine, fallback, deactivated} {
		require.NoError(t, repo.Create(ctx, r))
	}

	t.Run("all branches", func(t *testing.T) {
		rows, total, err := repo.FindLowStock(ctx, nil, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, rows, 3)

		assert.Equal(t, empty.ID, rows[0].ID)
		assert.Equal(t, inventory.StockLevelOutOfStock, rows[0].Level())
		assert.Equal(t, fallback.ID, rows[1].ID)
		require.NotNil(t, rows[1].ProductMinStock)
		assert.True(t, rows[1].ProductMinStock.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, inventory.StockLevelLow, rows[1].Level())
		assert.Equal(t, overridden.ID, rows[2].ID)
	})

	t.Run("one branch", func(t *testing.T) {
		rows, total, err := repo.FindLowStock(ctx, &other.ID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, rows, 1)
		assert.Equal(t, fallback.ID, rows[0].ID)
	})

	t.Run("paginates", func(t *testing.T) {
		rows, total, err := repo.FindLowStock(ctx, nil, shared.Filter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, rows, 1)
		assert.Equal(t, overridden.ID, rows[0].ID)
	})
}
