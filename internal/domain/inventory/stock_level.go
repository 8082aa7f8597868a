package inventory

import "github.com/shopspring/decimal"

// StockLevel classifies a record against its minimum
type StockLevel string

const (
	StockLevelInStock    StockLevel = "IN_STOCK"
	StockLevelLow        StockLevel = "LOW_STOCK"
	StockLevelOutOfStock StockLevel = "OUT_OF_STOCK"
)

// EffectiveMinimum returns the record's own minimum, falling back to the
// product-level minimum, then to zero.
func EffectiveMinimum(r *InventoryRecord, productMinimum *decimal.Decimal) decimal.Decimal {
	if r.StockMinimum != nil {
		return *r.StockMinimum
	}
	if productMinimum != nil {
		return *productMinimum
	}
	return decimal.Zero
}

// ClassifyStockLevel reports OUT_OF_STOCK when stock <= 0, LOW_STOCK when
// stock <= the effective minimum, IN_STOCK otherwise.
func ClassifyStockLevel(r *InventoryRecord, productMinimum *decimal.Decimal) StockLevel {
	if !r.StockCurrent.IsPositive() {
		return StockLevelOutOfStock
	}
	if r.StockCurrent.LessThanOrEqual(EffectiveMinimum(r, productMinimum)) {
		return StockLevelLow
	}
	return StockLevelInStock
}
