package router

import (
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/interfaces/http/handler"
	"github.com/retail/backend/internal/interfaces/http/middleware"
)

// InventoryRoutes registers the stock ledger endpoints. Role checks that
// depend on the branch happen in the service.
func InventoryRoutes(h *handler.InventoryHandler) *DomainGroup {
	g := NewDomainGroup("inventory", "/inventory")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/low-stock", h.ListLowStock)
	g.POST("/transfer", h.Transfer)
	g.GET("/:id", h.GetByID)
	g.GET("/:id/movements", h.ListMovements)
	g.POST("/:id/adjust", h.Adjust)
	g.POST("/:id/receive", h.Receive)
	g.POST("/:id/remove", h.Remove)
	g.PUT("/:id/thresholds", h.SetThresholds)
	g.POST("/:id/deactivate", h.Deactivate)
	g.POST("/:id/reactivate", h.Reactivate)
	return g
}

// ReturnRoutes registers the customer return endpoints
func ReturnRoutes(h *handler.ReturnHandler) *DomainGroup {
	g := NewDomainGroup("returns", "/returns")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PATCH("/:id", h.Update)
	g.PUT("/:id/status", h.UpdateStatus)
	return g
}

// AuditRoutes registers the audit trail, readable by reviewers only
func AuditRoutes(h *handler.AuditHandler) *DomainGroup {
	g := NewDomainGroup("audit", "/audit")
	g.Use(middleware.RequireRole(identity.RoleOwner, identity.RoleAdmin, identity.RoleSupervisor))
	g.GET("/:aggregate_type/:id", h.Trail)
	return g
}

// SystemRoutes registers authenticated system information
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.GetSystemInfo)
	return g
}
