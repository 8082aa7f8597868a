package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/catalog"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockAlertNotifier sends low-stock alerts
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert is raised when a record drops to or below its effective minimum
type StockAlert struct {
	InventoryID  string `json:"inventory_id"`
	ProductID    string `json:"product_id"`
	BranchID     string `json:"branch_id"`
	StockBefore  string `json:"stock_before"`
	StockCurrent string `json:"stock_current"`
	Minimum      string `json:"minimum"`
	Level        string `json:"level"` // LOW_STOCK or OUT_OF_STOCK
}

// LowStockAlertHandler watches stock decreases and alerts when a record
// crosses its effective minimum. Records already below the minimum do not
// alert again.
type LowStockAlertHandler struct {
	inventoryRepo inventory.InventoryRecordRepository
	productRepo   catalog.ProductRepository
	notifier      StockAlertNotifier
	logger        *zap.Logger
}

// NewLowStockAlertHandler creates a new LowStockAlertHandler
func NewLowStockAlertHandler(
	inventoryRepo inventory.InventoryRecordRepository,
	productRepo catalog.ProductRepository,
	notifier StockAlertNotifier,
	logger *zap.Logger,
) *LowStockAlertHandler {
	return &LowStockAlertHandler{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		notifier:      notifier,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockRemoved, inventory.EventTypeStockAdjusted}
}

// Handle processes a stock decrease
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var inventoryID uuid.UUID
	var before, after decimal.Decimal
	switch e := event.(type) {
	case *inventory.StockRemovedEvent:
		inventoryID, before, after = e.InventoryID, e.BalanceBefore, e.BalanceAfter
	case *inventory.StockAdjustedEvent:
		inventoryID, before, after = e.InventoryID, e.BalanceBefore, e.BalanceAfter
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	if !after.LessThan(before) {
		return nil
	}

	record, err := h.inventoryRepo.FindByID(ctx, inventoryID)
	if err != nil {
		return err
	}
	var productMinimum *decimal.Decimal
	if product, err := h.productRepo.FindByID(ctx, record.ProductID); err == nil {
		productMinimum = product.MinStock
	}
	minimum := inventory.EffectiveMinimum(record, productMinimum)

	wasLow := before.LessThanOrEqual(minimum) || !before.IsPositive()
	isLow := after.LessThanOrEqual(minimum) || !after.IsPositive()
	if wasLow || !isLow {
		return nil
	}

	level := inventory.StockLevelLow
	if !after.IsPositive() {
		level = inventory.StockLevelOutOfStock
	}
	alert := StockAlert{
		InventoryID:  record.ID.String(),
		ProductID:    record.ProductID.String(),
		BranchID:     record.BranchID.String(),
		StockBefore:  before.String(),
		StockCurrent: after.String(),
		Minimum:      minimum.String(),
		Level:        string(level),
	}

	h.logger.Warn("Stock dropped below minimum",
		zap.String("inventory_id", alert.InventoryID),
		zap.String("branch_id", alert.BranchID),
		zap.String("stock_current", alert.StockCurrent),
		zap.String("minimum", alert.Minimum),
		zap.String("level", alert.Level),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			h.logger.Error("Failed to send stock alert", zap.String("inventory_id", alert.InventoryID), zap.Error(err))
		}
	}
	return nil
}

var _ shared.EventHandler = (*LowStockAlertHandler)(nil)

// LoggingStockAlertNotifier writes alerts to the log
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("level", alert.Level),
		zap.String("product_id", alert.ProductID),
		zap.String("branch_id", alert.BranchID),
		zap.String("stock_current", alert.StockCurrent),
		zap.String("minimum", alert.Minimum),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
