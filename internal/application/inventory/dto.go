package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// InventoryResponse represents an inventory record in API responses
type InventoryResponse struct {
	ID             uuid.UUID        `json:"id"`
	ProductID      uuid.UUID        `json:"product_id"`
	BranchID       uuid.UUID        `json:"branch_id"`
	StockCurrent   decimal.Decimal  `json:"stock_current"`
	StockMinimum   *decimal.Decimal `json:"stock_minimum,omitempty"`
	StockMaximum   *decimal.Decimal `json:"stock_maximum,omitempty"`
	ReservedStock  decimal.Decimal  `json:"reserved_stock"`
	AvailableStock decimal.Decimal  `json:"available_stock"`
	AverageCost    decimal.Decimal  `json:"average_cost"`
	TotalValue     decimal.Decimal  `json:"total_value"`
	StockLevel     string           `json:"stock_level"`
	Notes          string           `json:"notes,omitempty"`
	Status         string           `json:"status"`
	Version        int              `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateInventoryRequest creates the record of a product at a branch.
// UnitCost only applies to the central branch; other branches take the
// central average cost.
type CreateInventoryRequest struct {
	ProductID    uuid.UUID
	BranchID     uuid.UUID
	Quantity     decimal.Decimal
	MinimumStock *decimal.Decimal
	UnitCost     *decimal.Decimal
	Notes        string
}

// AdjustStockRequest applies a signed manual correction
type AdjustStockRequest struct {
	Delta  decimal.Decimal
	Reason string
}

// ReceiveStockRequest records purchased units arriving at the central branch
type ReceiveStockRequest struct {
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Reference string
	Note      string
}

// RemoveStockRequest takes units out of a branch
type RemoveStockRequest struct {
	Quantity decimal.Decimal
	Reason   string
}

// TransferStockRequest ships units from the central branch to another branch
type TransferStockRequest struct {
	ProductID  uuid.UUID
	ToBranchID uuid.UUID
	Quantity   decimal.Decimal
	Note       string
}

// TransferStockResponse returns both sides of a transfer
type TransferStockResponse struct {
	TransferID uuid.UUID         `json:"transfer_id"`
	From       InventoryResponse `json:"from"`
	To         InventoryResponse `json:"to"`
}

// SetThresholdsRequest sets the branch-level minimum and maximum
type SetThresholdsRequest struct {
	MinimumStock *decimal.Decimal
	MaximumStock *decimal.Decimal
}

// InventoryListFilter represents filter options for inventory lists
type InventoryListFilter struct {
	Status    string     `form:"status"`
	BranchID  *uuid.UUID `form:"branch_id"`
	ProductID *uuid.UUID `form:"product_id"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir"`
}

// LowStockFilter represents filter options for the low-stock listing
type LowStockFilter struct {
	BranchID *uuid.UUID `form:"branch_id"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// MovementResponse represents a ledger entry
type MovementResponse struct {
	ID                uuid.UUID       `json:"id"`
	InventoryRecordID uuid.UUID       `json:"inventory_record_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	BranchID          uuid.UUID       `json:"branch_id"`
	MovementType      string          `json:"movement_type"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	BalanceBefore     decimal.Decimal `json:"balance_before"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	Reason            string          `json:"reason,omitempty"`
	SourceType        string          `json:"source_type"`
	SourceID          string          `json:"source_id,omitempty"`
	OperatorID        *uuid.UUID      `json:"operator_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// MovementListFilter represents filter options for ledger listings
type MovementListFilter struct {
	MovementType string     `form:"movement_type"`
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
}

// ToInventoryResponse converts a record to its response DTO.
// productMinimum is the product-level fallback used for the stock level.
func ToInventoryResponse(r *inventory.InventoryRecord, productMinimum *decimal.Decimal) InventoryResponse {
	return InventoryResponse{
		ID:             r.ID,
		ProductID:      r.ProductID,
		BranchID:       r.BranchID,
		StockCurrent:   r.StockCurrent,
		StockMinimum:   r.StockMinimum,
		StockMaximum:   r.StockMaximum,
		ReservedStock:  r.ReservedStock,
		AvailableStock: r.AvailableStock(),
		AverageCost:    r.AverageCost,
		TotalValue:     r.StockCurrent.Mul(r.AverageCost).Round(2),
		StockLevel:     string(inventory.ClassifyStockLevel(r, productMinimum)),
		Notes:          r.Notes,
		Status:         string(r.Status),
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ToMovementResponse converts a ledger entry to its response DTO
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		InventoryRecordID: m.InventoryRecordID,
		ProductID:         m.ProductID,
		BranchID:          m.BranchID,
		MovementType:      string(m.MovementType),
		Quantity:          m.Quantity,
		UnitCost:          m.UnitCost,
		TotalCost:         m.TotalCost(),
		BalanceBefore:     m.BalanceBefore,
		BalanceAfter:      m.BalanceAfter,
		Reason:            m.Reason,
		SourceType:        string(m.SourceType),
		SourceID:          m.SourceID,
		OperatorID:        m.OperatorID,
		CreatedAt:         m.CreatedAt,
	}
}

// ToMovementResponses converts a slice of ledger entries
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}
