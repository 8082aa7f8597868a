package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	eventapp "github.com/retail/backend/internal/application/event"
	inventoryapp "github.com/retail/backend/internal/application/inventory"
	tradeapp "github.com/retail/backend/internal/application/trade"
	"github.com/retail/backend/internal/domain/catalog"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/infrastructure/event"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/retail/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/retail/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// apiEnv wires real services over an in-memory database behind a gin engine
type apiEnv struct {
	engine   *gin.Engine
	fixtures *persistencetest.Fixtures
	central  *partner.Branch
	store    *partner.Branch
	product  *catalog.Product
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	fixtures := persistencetest.NewFixtures(t, db)

	bus := event.NewInMemoryEventBus(zap.NewNop())
	auditRepo := persistence.NewGormAuditLogRepository(db)
	bus.Subscribe(eventapp.NewAuditTrailHandler(auditRepo, zap.NewNop()))

	engine := inventoryapp.NewStockEngine(nil)
	txScope := persistence.NewGormTransactionScope(db)
	inventoryService := inventoryapp.NewInventoryService(
		txScope,
		persistence.NewGormInventoryRecordRepository(db),
		persistence.NewGormStockMovementRepository(db),
		persistence.NewGormBranchRepository(db),
		persistence.NewGormProductRepository(db),
		engine,
		inventory.NewBranchClassifier(""),
		zap.NewNop(),
	)
	inventoryService.SetEventPublisher(bus)
	returnService := tradeapp.NewReturnService(txScope, persistence.NewGormReturnRepository(db), engine, zap.NewNop())
	returnService.SetEventPublisher(bus)

	r := gin.New()
	r.Use(middleware.RequestID(), actorFromHeader())
	inv := NewInventoryHandler(inventoryService)
	r.POST("/inventory", inv.Create)
	r.GET("/inventory", inv.List)
	r.GET("/inventory/low-stock", inv.ListLowStock)
	r.POST("/inventory/transfer", inv.Transfer)
	r.GET("/inventory/:id", inv.GetByID)
	r.GET("/inventory/:id/movements", inv.ListMovements)
	r.POST("/inventory/:id/adjust", inv.Adjust)
	r.POST("/inventory/:id/receive", inv.Receive)
	r.POST("/inventory/:id/remove", inv.Remove)
	r.PUT("/inventory/:id/thresholds", inv.SetThresholds)
	r.POST("/inventory/:id/deactivate", inv.Deactivate)
	r.POST("/inventory/:id/reactivate", inv.Reactivate)

	ret := NewReturnHandler(returnService)
	r.POST("/returns", ret.Create)
	r.GET("/returns", ret.List)
	r.GET("/returns/:id", ret.GetByID)
	r.PATCH("/returns/:id", ret.Update)
	r.PUT("/returns/:id/status", ret.UpdateStatus)

	r.GET("/audit/:aggregate_type/:id", NewAuditHandler(eventapp.NewAuditService(auditRepo)).Trail)

	return &apiEnv{
		engine:   r,
		fixtures: fixtures,
		central:  fixtures.Branch(inventory.DefaultCentralBranchCode),
		store:    fixtures.Branch("SUC-001"),
		product:  fixtures.Product("SKU-001", nil),
	}
}

const testRoleHeader = "X-Test-Role"

// actorFromHeader stands in for the JWT middleware: the role comes from a
// test header and a missing header leaves the request anonymous.
func actorFromHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetHeader(testRoleHeader); role != "" {
			c.Set(middleware.ActorKey, identity.Actor{UserID: uuid.New(), Role: identity.Role(role)})
		}
		c.Next()
	}
}

// do sends a request as role; an empty role sends it anonymously
func (e *apiEnv) do(t *testing.T, role identity.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(testRoleHeader, string(role))
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// envelope is the decoded response body with typed data
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[json.RawMessage](t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

// seedRecord creates a record through the API and returns its id
func (e *apiEnv) seedRecord(t *testing.T, branchID uuid.UUID, quantity, unitCost string) uuid.UUID {
	t.Helper()
	body := map[string]any{
		"product_id": e.product.ID,
		"branch_id":  branchID,
		"quantity":   quantity,
	}
	if unitCost != "" {
		body["unit_cost"] = unitCost
	}
	w := e.do(t, identity.RoleOwner, http.MethodPost, "/inventory", body)
	requireStatus(t, w, http.StatusCreated)
	return decode[inventoryapp.InventoryResponse](t, w).Data.ID
}
