package inventory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/retail/backend/internal/application/inventory"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPlainScope(env *inventoryEnv) *appinv.NoOpTransactionScope {
	return appinv.NewNoOpTransactionScope(appinv.Repositories{
		Inventory: persistence.NewGormInventoryRecordRepository(env.db),
		Movements: persistence.NewGormStockMovementRepository(env.db),
		Branches:  persistence.NewGormBranchRepository(env.db),
		Products:  persistence.NewGormProductRepository(env.db),
		Sales:     persistence.NewGormSaleRepository(env.db),
		Returns:   persistence.NewGormReturnRepository(env.db),
	})
}

func TestStockEngine_StaleRecordIsRejected(t *testing.T) {
	env := setupInventory(t)
	ctx := context.Background()
	seeded := env.seedCentral(t, 10, 1)
	engine := appinv.NewStockEngine(nil)
	source := inventory.MovementSource{Type: inventory.SourceTypeManual, OperatorID: owner.UserID}

	err := newPlainScope(env).Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		first, err := engine.LockRecord(ctx, repos, seeded.ID)
		require.NoError(t, err)
		second, err := engine.LockRecord(ctx, repos, seeded.ID)
		require.NoError(t, err)

		_, err = engine.Remove(ctx, repos, first, inventory.MovementTypeOutbound, dec(4), "first", source)
		require.NoError(t, err)

		_, err = engine.Remove(ctx, repos, second, inventory.MovementTypeOutbound, dec(4), "second", source)
		return err
	})

	requireCode(t, err, "OPTIMISTIC_LOCK_FAILED")
	stored, err := env.service.GetInventory(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, stored.StockCurrent.Equal(dec(6)))
}

func TestStockEngine_SeedWithoutStockWritesNoMovement(t *testing.T) {
	env := setupInventory(t)
	ctx := context.Background()
	engine := appinv.NewStockEngine(nil)

	record, err := inventory.NewInventoryRecord(env.product.ID, env.store.ID)
	require.NoError(t, err)

	var movement *inventory.StockMovement
	err = newPlainScope(env).Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		movement, err = engine.Seed(ctx, repos, record, inventory.MovementTypeInitial, dec(0), nil, "empty shelf",
			inventory.MovementSource{Type: inventory.SourceTypeInitialStock})
		return err
	})
	require.NoError(t, err)
	assert.Nil(t, movement)

	_, total, err := env.service.ListMovements(ctx, record.ID, appinv.MovementListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStockEngine_LockRecordAtMissing(t *testing.T) {
	env := setupInventory(t)
	ctx := context.Background()

	err := newPlainScope(env).Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		_, err := appinv.NewStockEngine(nil).LockRecordAt(ctx, repos, env.product.ID, uuid.New())
		return err
	})

	assert.ErrorIs(t, err, appinv.ErrInventoryNotFound)
}

func TestStockEngine_Observe(t *testing.T) {
	recorder := &mockStockRecorder{}
	branchID := uuid.New()
	recorder.On("RecordMovement", mock.Anything, "RETURN", branchID, dec(3)).Return().Once()

	engine := appinv.NewStockEngine(recorder)
	engine.Observe(context.Background(), nil, &inventory.StockMovement{
		MovementType: inventory.MovementTypeReturn,
		BranchID:     branchID,
		Quantity:     dec(3),
	})

	recorder.AssertExpectations(t)
	appinv.NewStockEngine(nil).Observe(context.Background(), &inventory.StockMovement{})
}

func TestNoOpTransactionScope_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := appinv.NewNoOpTransactionScope(appinv.Repositories{}).Execute(ctx, func(appinv.TransactionalRepositories) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
