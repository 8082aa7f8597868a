package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metric attribute keys
var (
	AttrMovementType = attribute.Key("movement_type")
	AttrBranchID     = attribute.Key("branch_id")
	AttrFromStatus   = attribute.Key("from_status")
	AttrToStatus     = attribute.Key("to_status")
)

// StockMetrics records stock and return instruments. A nil *StockMetrics is a no-op.
type StockMetrics struct {
	movementCount     metric.Int64Counter
	movementQuantity  metric.Float64Counter
	returnTransitions metric.Int64Counter
	lowStockRecords   metric.Int64Gauge

	logger   *zap.Logger
	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStockMetrics creates the instruments on the given meter
func NewStockMetrics(meter metric.Meter, logger *zap.Logger) (*StockMetrics, error) {
	m := &StockMetrics{logger: logger, stopCh: make(chan struct{})}
	var err error

	if m.movementCount, err = meter.Int64Counter("inventory.stock.movements",
		metric.WithDescription("Number of stock movements written to the ledger"),
		metric.WithUnit("{movement}"),
	); err != nil {
		return nil, err
	}
	if m.movementQuantity, err = meter.Float64Counter("inventory.stock.quantity",
		metric.WithDescription("Units moved by stock movements"),
		metric.WithUnit("{unit}"),
	); err != nil {
		return nil, err
	}
	if m.returnTransitions, err = meter.Int64Counter("returns.transitions",
		metric.WithDescription("Return status transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}
	if m.lowStockRecords, err = meter.Int64Gauge("inventory.low_stock.records",
		metric.WithDescription("Active records at or below their minimum stock"),
		metric.WithUnit("{record}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMovement counts a ledger entry and the units it moved
func (m *StockMetrics) RecordMovement(ctx context.Context, movementType string, branchID uuid.UUID, quantity decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrMovementType.String(movementType), AttrBranchID.String(branchID.String()))
	m.movementCount.Add(ctx, 1, attrs)
	m.movementQuantity.Add(ctx, quantity.InexactFloat64(), attrs)
}

// RecordReturnTransition counts a return status change
func (m *StockMetrics) RecordReturnTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.returnTransitions.Add(ctx, 1, metric.WithAttributes(AttrFromStatus.String(from), AttrToStatus.String(to)))
}

// RecordLowStockCount sets the low-stock gauge
func (m *StockMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	if m == nil {
		return
	}
	m.lowStockRecords.Record(ctx, count)
}

// LowStockCounter returns the number of low-stock records
type LowStockCounter func(ctx context.Context) (int64, error)

// StartLowStockCollection samples the low-stock count every interval until Stop is called.
func (m *StockMetrics) StartLowStockCollection(ctx context.Context, count LowStockCounter, interval time.Duration) {
	if m == nil || count == nil {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				n, err := count(ctx)
				if err != nil {
					m.logger.Warn("Failed to collect low stock count", zap.Error(err))
					continue
				}
				m.RecordLowStockCount(ctx, n)
			}
		}
	}()
}

// Stop ends periodic collection and waits for it to exit
func (m *StockMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
