package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/retail/backend/internal/application/trade"
	"github.com/retail/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// ReturnHandler handles customer return API endpoints
type ReturnHandler struct {
	BaseHandler
	returnService *tradeapp.ReturnService
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(returnService *tradeapp.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

// CreateReturnRequest represents a request to open a return against a sale line
// @Description A new return starts pending and does not move stock
type CreateReturnRequest struct {
	SaleID     string           `json:"sale_id" binding:"required,uuid"`
	SaleItemID string           `json:"sale_item_id" binding:"required,uuid"`
	CustomerID string           `json:"customer_id" binding:"required,uuid"`
	ProductID  string           `json:"product_id" binding:"required,uuid"`
	Quantity   *decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"1"`
	Reason     string           `json:"reason" binding:"required,max=500" example:"Defective on arrival"`
}

// UpdateReturnStatusRequest represents a status transition
// @Description Approving credits stock at the sale's branch and is final
type UpdateReturnStatusRequest struct {
	Status          string `json:"status" binding:"required,oneof=pending approved rejected" example:"approved"`
	RejectionReason string `json:"rejection_reason" binding:"max=500"`
}

// UpdateReturnRequest represents an edit of a return that is not approved
type UpdateReturnRequest struct {
	Quantity *decimal.Decimal `json:"quantity" swaggertype:"string" example:"2"`
	Reason   *string          `json:"reason" binding:"omitempty,max=500"`
}

// ListReturnsQuery holds the query parameters of the return listing
type ListReturnsQuery struct {
	dto.ListRequest
	Status     string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	SaleID     string `form:"sale_id" binding:"omitempty,uuid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	BranchID   string `form:"branch_id" binding:"omitempty,uuid"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=created_at updated_at quantity status"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create godoc
// @ID           createReturn
// @Summary      Create a return
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request body CreateReturnRequest true "Return"
// @Success      201 {object} dto.Response{data=tradeapp.ReturnResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /returns [post]
func (h *ReturnHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ret, err := h.returnService.CreateReturn(c.Request.Context(), actor, tradeapp.CreateReturnRequest{
		SaleID:     uuid.MustParse(req.SaleID),
		SaleItemID: uuid.MustParse(req.SaleItemID),
		CustomerID: uuid.MustParse(req.CustomerID),
		ProductID:  uuid.MustParse(req.ProductID),
		Quantity:   *req.Quantity,
		Reason:     req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// UpdateStatus godoc
// @ID           updateReturnStatus
// @Summary      Approve or reject a return
// @Description  Approved returns are final; any further change is refused with RETURN_CANNOT_REVERT
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        id path string true "Return ID" format(uuid)
// @Param        request body UpdateReturnStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=tradeapp.ReturnResponse}
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /returns/{id}/status [put]
func (h *ReturnHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req UpdateReturnStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ret, err := h.returnService.UpdateReturnStatus(c.Request.Context(), actor, id, tradeapp.UpdateReturnStatusRequest{
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// Update godoc
// @ID           updateReturn
// @Summary      Edit a return
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        id path string true "Return ID" format(uuid)
// @Param        request body UpdateReturnRequest true "Changes"
// @Success      200 {object} dto.Response{data=tradeapp.ReturnResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /returns/{id} [patch]
func (h *ReturnHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req UpdateReturnRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ret, err := h.returnService.UpdateReturn(c.Request.Context(), actor, id, tradeapp.UpdateReturnRequest{
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// GetByID godoc
// @ID           getReturnById
// @Summary      Get a return by ID
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ReturnResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /returns/{id} [get]
func (h *ReturnHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ret, err := h.returnService.GetReturn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}

// List godoc
// @ID           listReturns
// @Summary      List returns
// @Tags         returns
// @Produce      json
// @Param        status query string false "Status" Enums(pending, approved, rejected)
// @Param        sale_id query string false "Sale ID" format(uuid)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        branch_id query string false "Branch ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]tradeapp.ReturnResponse}
// @Security     BearerAuth
// @Router       /returns [get]
func (h *ReturnHandler) List(c *gin.Context) {
	var q ListReturnsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.ListRequest.Normalize()

	filter := tradeapp.ReturnListFilter{
		Status:   q.Status,
		Page:     page.Page,
		PageSize: page.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	filter.SaleID, _ = parseOptionalID(q.SaleID)
	filter.CustomerID, _ = parseOptionalID(q.CustomerID)
	filter.BranchID, _ = parseOptionalID(q.BranchID)

	returns, total, err := h.returnService.ListReturns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, returns, total, page.Page, page.PageSize)
}
