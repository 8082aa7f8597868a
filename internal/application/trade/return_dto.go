package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// CreateReturnRequest creates a pending return against a sale line
type CreateReturnRequest struct {
	SaleID     uuid.UUID
	SaleItemID uuid.UUID
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	Reason     string
}

// UpdateReturnStatusRequest requests a status transition
type UpdateReturnStatusRequest struct {
	Status          string
	RejectionReason string
}

// UpdateReturnRequest changes the editable fields of a return that is not approved
type UpdateReturnRequest struct {
	Quantity *decimal.Decimal
	Reason   *string
}

// ReturnListFilter represents filter options for return lists
type ReturnListFilter struct {
	Status     string     `form:"status"`
	SaleID     *uuid.UUID `form:"sale_id"`
	CustomerID *uuid.UUID `form:"customer_id"`
	BranchID   *uuid.UUID `form:"branch_id"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
}

// ReturnResponse represents a return in API responses
type ReturnResponse struct {
	ID              uuid.UUID       `json:"id"`
	SaleID          uuid.UUID       `json:"sale_id"`
	SaleItemID      uuid.UUID       `json:"sale_item_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	BranchID        uuid.UUID       `json:"branch_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reason          string          `json:"reason"`
	Status          string          `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedBy       *uuid.UUID      `json:"created_by,omitempty"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID      `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToReturnResponse converts a return to its response DTO
func ToReturnResponse(r *trade.Return) ReturnResponse {
	return ReturnResponse{
		ID:              r.ID,
		SaleID:          r.SaleID,
		SaleItemID:      r.SaleItemID,
		CustomerID:      r.CustomerID,
		ProductID:       r.ProductID,
		BranchID:        r.BranchID,
		Quantity:        r.Quantity,
		Reason:          r.Reason,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		CreatedBy:       r.CreatedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ToReturnResponses converts a slice of returns
func ToReturnResponses(returns []trade.Return) []ReturnResponse {
	responses := make([]ReturnResponse, len(returns))
	for i := range returns {
		responses[i] = ToReturnResponse(&returns[i])
	}
	return responses
}
