package persistence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/domain/trade"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/retail/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type returnFixture struct {
	repo *persistence.GormReturnRepository
	sale *trade.Sale
}

func setupReturnFixture(t *testing.T) (*gorm.DB, returnFixture) {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	fixtures := persistencetest.NewFixtures(t, db)
	branch := fixtures.Branch("BR-001")
	product := fixtures.Product("SKU-1", nil)
	sale := fixtures.Sale(branch.ID, uuid.New(), product.ID, 10)
	return db, returnFixture{repo: persistence.NewGormReturnRepository(db), sale: sale}
}

func (f returnFixture) newReturn(t *testing.T, quantity int64) *trade.Return {
	t.Helper()
	item := f.sale.Items[0]
	r, err := trade.NewReturn(trade.ReturnRequest{
		SaleID:     f.sale.ID,
		SaleItemID: item.ID,
		CustomerID: f.sale.CustomerID,
		ProductID:  item.ProductID,
		Quantity:   decimal.NewFromInt(quantity),
		Reason:     "defective",
	}, f.sale, decimal.Zero, uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(context.Background(), r))
	return r
}

func supervisor() identity.Actor {
	return identity.Actor{UserID: uuid.New(), Role: identity.RoleSupervisor}
}

func TestGormSaleRepository_FindByIDForUpdate(t *testing.T) {
	db, f := setupReturnFixture(t)
	repo := persistence.NewGormSaleRepository(db)

	sale, err := repo.FindByIDForUpdate(context.Background(), f.sale.ID)
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, f.sale.Items[0].ID, sale.Items[0].ID)
	assert.True(t, sale.Items[0].Quantity.Equal(decimal.NewFromInt(10)))

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormReturnRepository_SumReturnedQuantity(t *testing.T) {
	_, f := setupReturnFixture(t)
	ctx := context.Background()
	itemID := f.sale.Items[0].ID

	sum, err := f.repo.SumReturnedQuantity(ctx, itemID, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	pending := f.newReturn(t, 2)
	rejected := f.newReturn(t, 3)
	require.NoError(t, rejected.Reject(supervisor(), "no receipt"))
	require.NoError(t, f.repo.UpdateStatus(ctx, rejected, trade.ReturnStatusPending))

	sum, err = f.repo.SumReturnedQuantity(ctx, itemID, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(2)), "rejected returns do not count, got %s", sum)

	sum, err = f.repo.SumReturnedQuantity(ctx, itemID, pending.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestGormReturnRepository_UpdateStatus(t *testing.T) {
	_, f := setupReturnFixture(t)
	ctx := context.Background()

	t.Run("applies transition from expected status", func(t *testing.T) {
		r := f.newReturn(t, 1)
		require.NoError(t, r.Approve(supervisor()))
		require.NoError(t, f.repo.UpdateStatus(ctx, r, trade.ReturnStatusPending))

		stored, err := f.repo.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.ReturnStatusApproved, stored.Status)
		require.NotNil(t, stored.ApprovedBy)
		assert.NotNil(t, stored.ApprovedAt)
	})

	t.Run("second writer on approved return gets cannot revert", func(t *testing.T) {
		r := f.newReturn(t, 1)
		first, err := f.repo.FindByID(ctx, r.ID)
		require.NoError(t, err)
		second, err := f.repo.FindByID(ctx, r.ID)
		require.NoError(t, err)

		require.NoError(t, first.Approve(supervisor()))
		require.NoError(t, f.repo.UpdateStatus(ctx, first, trade.ReturnStatusPending))

		require.NoError(t, second.Reject(supervisor(), "late"))
		err = f.repo.UpdateStatus(ctx, second, trade.ReturnStatusPending)
		assert.ErrorIs(t, err, trade.ErrReturnCannotRevert)
	})

	t.Run("second writer on rejected return gets concurrency conflict", func(t *testing.T) {
		r := f.newReturn(t, 1)
		first, err := f.repo.FindByID(ctx, r.ID)
		require.NoError(t, err)
		second, err := f.repo.FindByID(ctx, r.ID)
		require.NoError(t, err)

		require.NoError(t, first.Reject(supervisor(), "worn"))
		require.NoError(t, f.repo.UpdateStatus(ctx, first, trade.ReturnStatusPending))

		require.NoError(t, second.Reject(supervisor(), "torn"))
		err = f.repo.UpdateStatus(ctx, second, trade.ReturnStatusPending)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
	})
}

func TestGormReturnRepository_SaveWithLock(t *testing.T) {
	_, f := setupReturnFixture(t)
	ctx := context.Background()
	r := f.newReturn(t, 1)

	qty := decimal.NewFromInt(4)
	reason := "wrong size"
	require.NoError(t, r.UpdateDetails(supervisor(), &qty, &reason, &f.sale.Items[0], decimal.Zero))
	require.NoError(t, f.repo.SaveWithLock(ctx, r))

	stored, err := f.repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, stored.Quantity.Equal(qty))
	assert.Equal(t, reason, stored.Reason)

	t.Run("approved return is not overwritten", func(t *testing.T) {
		require.NoError(t, stored.Approve(supervisor()))
		require.NoError(t, f.repo.UpdateStatus(ctx, stored, trade.ReturnStatusPending))

		stale := *r
		stale.Version++
		err := f.repo.SaveWithLock(ctx, &stale)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_FAILED", domainErr.Code)
	})
}

func TestGormReturnRepository_FindAll(t *testing.T) {
	_, f := setupReturnFixture(t)
	ctx := context.Background()

	f.newReturn(t, 1)
	r := f.newReturn(t, 2)
	require.NoError(t, r.Approve(supervisor()))
	require.NoError(t, f.repo.UpdateStatus(ctx, r, trade.ReturnStatusPending))

	approved := trade.ReturnStatusApproved
	returns, total, err := f.repo.FindAll(ctx, trade.ReturnFilter{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, returns, 1)
	assert.Equal(t, r.ID, returns[0].ID)

	returns, total, err = f.repo.FindAll(ctx, trade.ReturnFilter{SaleID: &f.sale.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, returns, 2)
}
