package telemetry_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func zapNop() *zap.Logger {
	return zap.NewNop()
}

func newTestStockMetrics(t *testing.T) (*telemetry.StockMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewStockMetrics(provider.Meter("test"), zapNop())
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestStockMetrics_RecordMovement(t *testing.T) {
	m, reader := newTestStockMetrics(t)
	branchID := uuid.New()

	m.RecordMovement(context.Background(), "INBOUND", branchID, decimal.NewFromInt(10))
	m.RecordMovement(context.Background(), "INBOUND", branchID, decimal.NewFromFloat(2.5))

	metrics := collect(t, reader)

	count, ok := metrics["inventory.stock.movements"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, count.DataPoints, 1)
	assert.Equal(t, int64(2), count.DataPoints[0].Value)

	qty, ok := metrics["inventory.stock.quantity"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, qty.DataPoints, 1)
	assert.InDelta(t, 12.5, qty.DataPoints[0].Value, 0.0001)
}

func TestStockMetrics_RecordReturnTransition(t *testing.T) {
	m, reader := newTestStockMetrics(t)

	m.RecordReturnTransition(context.Background(), "pending", "approved")
	m.RecordReturnTransition(context.Background(), "pending", "rejected")

	metrics := collect(t, reader)
	sum, ok := metrics["returns.transitions"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)
}

func TestStockMetrics_LowStockCollection(t *testing.T) {
	m, reader := newTestStockMetrics(t)

	var calls atomic.Int32
	m.StartLowStockCollection(context.Background(), func(context.Context) (int64, error) {
		calls.Add(1)
		return 7, nil
	}, 5*time.Millisecond)

	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()

	metrics := collect(t, reader)
	gauge, ok := metrics["inventory.low_stock.records"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)
}

func TestStockMetrics_NilIsNoop(t *testing.T) {
	var m *telemetry.StockMetrics
	assert.NotPanics(t, func() {
		m.RecordMovement(context.Background(), "OUTBOUND", uuid.New(), decimal.NewFromInt(1))
		m.RecordReturnTransition(context.Background(), "pending", "approved")
		m.RecordLowStockCount(context.Background(), 3)
		m.StartLowStockCollection(context.Background(), nil, time.Second)
		m.Stop()
	})
}
