package inventory_test

import (
	"context"
	"errors"
	"testing"

	appinv "github.com/retail/backend/internal/application/inventory"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAlertNotifier struct {
	mock.Mock
}

func (m *mockAlertNotifier) SendAlert(ctx context.Context, alert appinv.StockAlert) error {
	return m.Called(ctx, alert).Error(0)
}

func removedEvent(record *inventory.InventoryRecord, before, after float64) *inventory.StockRemovedEvent {
	return inventory.NewStockRemovedEvent(record, &inventory.StockChange{
		Quantity:      dec(before - after),
		BalanceBefore: dec(before),
		BalanceAfter:  dec(after),
	})
}

func TestLowStockAlertHandler(t *testing.T) {
	env := setupInventory(t)
	ctx := context.Background()
	resp := env.seedCentral(t, 4, 1)
	_, err := env.service.SetThresholds(ctx, owner, resp.ID, appinv.SetThresholdsRequest{MinimumStock: decPtr(5)})
	require.NoError(t, err)

	repo := persistence.NewGormInventoryRecordRepository(env.db)
	record, err := repo.FindByID(ctx, resp.ID)
	require.NoError(t, err)

	newHandler := func(notifier appinv.StockAlertNotifier) *appinv.LowStockAlertHandler {
		return appinv.NewLowStockAlertHandler(repo, persistence.NewGormProductRepository(env.db), notifier, zap.NewNop())
	}

	t.Run("alerts when crossing the minimum", func(t *testing.T) {
		notifier := &mockAlertNotifier{}
		notifier.On("SendAlert", mock.Anything, mock.MatchedBy(func(a appinv.StockAlert) bool {
			return a.InventoryID == record.ID.String() && a.Level == "LOW_STOCK" && a.Minimum == "5"
		})).Return(nil).Once()

		err := newHandler(notifier).Handle(ctx, removedEvent(record, 8, 4))

		require.NoError(t, err)
		notifier.AssertExpectations(t)
	})

	t.Run("reports out of stock", func(t *testing.T) {
		notifier := &mockAlertNotifier{}
		notifier.On("SendAlert", mock.Anything, mock.MatchedBy(func(a appinv.StockAlert) bool {
			return a.Level == "OUT_OF_STOCK"
		})).Return(nil).Once()

		require.NoError(t, newHandler(notifier).Handle(ctx, removedEvent(record, 6, 0)))
		notifier.AssertExpectations(t)
	})

	t.Run("already low does not alert again", func(t *testing.T) {
		notifier := &mockAlertNotifier{}

		require.NoError(t, newHandler(notifier).Handle(ctx, removedEvent(record, 5, 3)))
		notifier.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
	})

	t.Run("staying above minimum does not alert", func(t *testing.T) {
		notifier := &mockAlertNotifier{}

		require.NoError(t, newHandler(notifier).Handle(ctx, removedEvent(record, 20, 10)))
		notifier.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
	})

	t.Run("increasing adjustment is ignored", func(t *testing.T) {
		notifier := &mockAlertNotifier{}
		event := inventory.NewStockAdjustedEvent(record, &inventory.StockChange{
			Quantity:      decimal.NewFromInt(3),
			BalanceBefore: decimal.NewFromInt(1),
			BalanceAfter:  decimal.NewFromInt(4),
		})

		require.NoError(t, newHandler(notifier).Handle(ctx, event))
		notifier.AssertNotCalled(t, "SendAlert", mock.Anything, mock.Anything)
	})

	t.Run("notifier failure is not returned", func(t *testing.T) {
		notifier := &mockAlertNotifier{}
		notifier.On("SendAlert", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		assert.NoError(t, newHandler(notifier).Handle(ctx, removedEvent(record, 9, 2)))
		notifier.AssertExpectations(t)
	})

	t.Run("rejects unrelated events", func(t *testing.T) {
		event := inventory.NewInventoryCreatedEvent(record, owner.UserID)
		assert.Error(t, newHandler(nil).Handle(ctx, event))
	})

	t.Run("subscribes to decreases", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]string{inventory.EventTypeStockRemoved, inventory.EventTypeStockAdjusted},
			newHandler(nil).EventTypes())
	})
}

func TestLowStockAlertHandler_FallsBackToProductMinimum(t *testing.T) {
	env := setupInventory(t)
	ctx := context.Background()
	product := env.fixtures.Product("SKU-MIN", decPtr(10))
	resp, err := env.service.CreateInventory(ctx, owner, appinv.CreateInventoryRequest{
		ProductID: product.ID,
		BranchID:  env.central.ID,
		Quantity:  dec(12),
		UnitCost:  decPtr(1),
	})
	require.NoError(t, err)

	repo := persistence.NewGormInventoryRecordRepository(env.db)
	record, err := repo.FindByID(ctx, resp.ID)
	require.NoError(t, err)

	notifier := &mockAlertNotifier{}
	notifier.On("SendAlert", mock.Anything, mock.MatchedBy(func(a appinv.StockAlert) bool {
		return a.Minimum == "10" && a.StockCurrent == "9"
	})).Return(nil).Once()

	handler := appinv.NewLowStockAlertHandler(repo, persistence.NewGormProductRepository(env.db), notifier, zap.NewNop())
	require.NoError(t, handler.Handle(ctx, removedEvent(record, 12, 9)))
	notifier.AssertExpectations(t)
}
