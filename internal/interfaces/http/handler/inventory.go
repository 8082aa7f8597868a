package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/retail/backend/internal/application/inventory"
	"github.com/retail/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// parseDateTime parses RFC3339, a bare date, or a datetime without zone
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// InventoryHandler handles inventory-related API endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// ===================== Request Types =====================

// CreateInventoryRequest represents a request to open an inventory record
// @Description Opens stock of a product at a branch
type CreateInventoryRequest struct {
	ProductID    string           `json:"product_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	BranchID     string           `json:"branch_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Quantity     *decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"25"`
	MinimumStock *decimal.Decimal `json:"minimum_stock" swaggertype:"string" example:"5"`
	UnitCost     *decimal.Decimal `json:"unit_cost" swaggertype:"string" example:"12.5000"`
	Notes        string           `json:"notes" binding:"max=500"`
}

// AdjustStockRequest represents a signed manual correction
// @Description Positive delta adds stock, negative delta removes it
type AdjustStockRequest struct {
	Delta  *decimal.Decimal `json:"delta" binding:"required" swaggertype:"string" example:"-3"`
	Reason string           `json:"reason" binding:"required,max=255" example:"Damaged in storage"`
}

// ReceiveStockRequest represents a costed receipt
// @Description Adds stock and recomputes the weighted average cost
type ReceiveStockRequest struct {
	Quantity  *decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"10"`
	UnitCost  *decimal.Decimal `json:"unit_cost" binding:"required" swaggertype:"string" example:"14.2500"`
	Reference string           `json:"reference" binding:"max=64" example:"GRN-2024-0042"`
	Note      string           `json:"note" binding:"max=500"`
}

// RemoveStockRequest represents a stock removal
type RemoveStockRequest struct {
	Quantity *decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"2"`
	Reason   string           `json:"reason" binding:"required,max=255" example:"Shrinkage"`
}

// TransferStockRequest represents a transfer from the central branch
// @Description Moves units and their cost from the central branch to a store
type TransferStockRequest struct {
	ProductID  string           `json:"product_id" binding:"required,uuid"`
	ToBranchID string           `json:"to_branch_id" binding:"required,uuid"`
	Quantity   *decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"6"`
	Note       string           `json:"note" binding:"max=500"`
}

// SetThresholdsRequest represents new alert thresholds. Omitted values are cleared.
type SetThresholdsRequest struct {
	MinimumStock *decimal.Decimal `json:"minimum_stock" swaggertype:"string" example:"5"`
	MaximumStock *decimal.Decimal `json:"maximum_stock" swaggertype:"string" example:"200"`
}

// ListInventoryQuery holds the query parameters of the inventory listing
type ListInventoryQuery struct {
	dto.ListRequest
	Status    string `form:"status" binding:"omitempty,oneof=active inactive all"`
	BranchID  string `form:"branch_id" binding:"omitempty,uuid"`
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	OrderBy   string `form:"order_by" binding:"omitempty,oneof=created_at updated_at stock_current average_cost"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LowStockQuery holds the query parameters of the low-stock listing
type LowStockQuery struct {
	dto.ListRequest
	BranchID string `form:"branch_id" binding:"omitempty,uuid"`
}

// MovementQuery holds the query parameters of the ledger listing
type MovementQuery struct {
	dto.ListRequest
	MovementType string `form:"movement_type"`
	From         string `form:"from"`
	To           string `form:"to"`
}

// ===================== Command Handlers =====================

// Create godoc
// @ID           createInventory
// @Summary      Create inventory record
// @Description  Opens a record for a product at a branch. Stock at a store is capped by central stock.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body CreateInventoryRequest true "Inventory record"
// @Success      201 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateInventoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.CreateInventory(c.Request.Context(), actor, inventoryapp.CreateInventoryRequest{
		ProductID:    uuid.MustParse(req.ProductID),
		BranchID:     uuid.MustParse(req.BranchID),
		Quantity:     *req.Quantity,
		MinimumStock: req.MinimumStock,
		UnitCost:     req.UnitCost,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// Adjust godoc
// @ID           adjustInventory
// @Summary      Adjust stock
// @Description  Applies a signed correction. Stock never goes negative.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Param        request body AdjustStockRequest true "Adjustment"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.AdjustStock(c.Request.Context(), actor, id, inventoryapp.AdjustStockRequest{
		Delta:  *req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Receive godoc
// @ID           receiveInventory
// @Summary      Receive stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Param        request body ReceiveStockRequest true "Receipt"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id}/receive [post]
func (h *InventoryHandler) Receive(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ReceiveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.ReceiveStock(c.Request.Context(), actor, id, inventoryapp.ReceiveStockRequest{
		Quantity:  *req.Quantity,
		UnitCost:  *req.UnitCost,
		Reference: req.Reference,
		Note:      req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Remove godoc
// @ID           removeInventory
// @Summary      Remove stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Param        request body RemoveStockRequest true "Removal"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id}/remove [post]
func (h *InventoryHandler) Remove(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req RemoveStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.RemoveStock(c.Request.Context(), actor, id, inventoryapp.RemoveStockRequest{
		Quantity: *req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Transfer godoc
// @ID           transferInventory
// @Summary      Transfer stock from the central branch
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body TransferStockRequest true "Transfer"
// @Success      200 {object} dto.Response{data=inventoryapp.TransferStockResponse}
// @Failure      403 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req TransferStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.inventoryService.TransferStock(c.Request.Context(), actor, inventoryapp.TransferStockRequest{
		ProductID:  uuid.MustParse(req.ProductID),
		ToBranchID: uuid.MustParse(req.ToBranchID),
		Quantity:   *req.Quantity,
		Note:       req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SetThresholds godoc
// @ID           setInventoryThresholds
// @Summary      Set alert thresholds
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Param        request body SetThresholdsRequest true "Thresholds"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Security     BearerAuth
// @Router       /inventory/{id}/thresholds [put]
func (h *InventoryHandler) SetThresholds(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req SetThresholdsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.SetThresholds(c.Request.Context(), actor, id, inventoryapp.SetThresholdsRequest{
		MinimumStock: req.MinimumStock,
		MaximumStock: req.MaximumStock,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Deactivate godoc
// @ID           deactivateInventory
// @Summary      Deactivate inventory record
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Security     BearerAuth
// @Router       /inventory/{id}/deactivate [post]
func (h *InventoryHandler) Deactivate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	record, err := h.inventoryService.DeactivateInventory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Reactivate godoc
// @ID           reactivateInventory
// @Summary      Reactivate inventory record
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Security     BearerAuth
// @Router       /inventory/{id}/reactivate [post]
func (h *InventoryHandler) Reactivate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	record, err := h.inventoryService.ReactivateInventory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// ===================== Query Handlers =====================

// GetByID godoc
// @ID           getInventoryById
// @Summary      Get inventory record by ID
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id} [get]
func (h *InventoryHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	record, err := h.inventoryService.GetInventory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// List godoc
// @ID           listInventory
// @Summary      List inventory records
// @Description  Lists records; status defaults to active
// @Tags         inventory
// @Produce      json
// @Param        status query string false "Status filter" Enums(active, inactive, all)
// @Param        branch_id query string false "Branch ID" format(uuid)
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]inventoryapp.InventoryResponse}
// @Security     BearerAuth
// @Router       /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var q ListInventoryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.ListRequest.Normalize()

	filter := inventoryapp.InventoryListFilter{
		Status:   q.Status,
		Page:     page.Page,
		PageSize: page.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	filter.BranchID, _ = parseOptionalID(q.BranchID)
	filter.ProductID, _ = parseOptionalID(q.ProductID)

	records, total, err := h.inventoryService.ListInventory(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, page.Page, page.PageSize)
}

// ListLowStock godoc
// @ID           listLowStockInventory
// @Summary      List low-stock records
// @Description  Active records at or below their minimum, falling back to the product minimum
// @Tags         inventory
// @Produce      json
// @Param        branch_id query string false "Branch ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]inventoryapp.InventoryResponse}
// @Security     BearerAuth
// @Router       /inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	var q LowStockQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.ListRequest.Normalize()

	filter := inventoryapp.LowStockFilter{Page: page.Page, PageSize: page.PageSize}
	filter.BranchID, _ = parseOptionalID(q.BranchID)

	records, total, err := h.inventoryService.ListLowStock(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, page.Page, page.PageSize)
}

// ListMovements godoc
// @ID           listInventoryMovements
// @Summary      List stock movements of a record
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory ID" format(uuid)
// @Param        movement_type query string false "Movement type"
// @Param        from query string false "From (RFC3339 or date)"
// @Param        to query string false "To (RFC3339 or date)"
// @Success      200 {object} dto.Response{data=[]inventoryapp.MovementResponse}
// @Security     BearerAuth
// @Router       /inventory/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var q MovementQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.ListRequest.Normalize()

	filter := inventoryapp.MovementListFilter{
		MovementType: q.MovementType,
		Page:         page.Page,
		PageSize:     page.PageSize,
	}
	if q.From != "" {
		from, err := parseDateTime(q.From)
		if err != nil {
			h.BadRequest(c, "Invalid from date")
			return
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := parseDateTime(q.To)
		if err != nil {
			h.BadRequest(c, "Invalid to date")
			return
		}
		filter.To = &to
	}

	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, page.Page, page.PageSize)
}
