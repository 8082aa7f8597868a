package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	eventapp "github.com/retail/backend/internal/application/event"
	"github.com/retail/backend/internal/interfaces/http/middleware"
)

// AuditHandler exposes the audit trail
type AuditHandler struct {
	BaseHandler
	auditService *eventapp.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *eventapp.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

type auditTrailURI struct {
	AggregateType string `uri:"aggregate_type" binding:"required,oneof=InventoryRecord Return"`
	ID            string `uri:"id" binding:"required,uuid"`
}

// Trail godoc
// @ID           getAuditTrail
// @Summary      Get the audit trail of an aggregate
// @Tags         audit
// @Produce      json
// @Param        aggregate_type path string true "Aggregate type" Enums(InventoryRecord, Return)
// @Param        id path string true "Aggregate ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]eventapp.AuditEntryResponse}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /audit/{aggregate_type}/{id} [get]
func (h *AuditHandler) Trail(c *gin.Context) {
	var uri auditTrailURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	entries, err := h.auditService.Trail(c.Request.Context(), uri.AggregateType, uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
