package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	inventoryapp "github.com/retail/backend/internal/application/inventory"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryHandler_Create(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, identity.RoleOwner, http.MethodPost, "/inventory", map[string]any{
		"product_id":    env.product.ID,
		"branch_id":     env.central.ID,
		"quantity":      "25",
		"unit_cost":     "12.5",
		"minimum_stock": "5",
	})

	requireStatus(t, w, http.StatusCreated)
	resp := decode[inventoryapp.InventoryResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "25", resp.Data.StockCurrent.String())
	assert.Equal(t, "12.5", resp.Data.AverageCost.String())
	assert.Equal(t, env.central.ID, resp.Data.BranchID)
}

func TestInventoryHandler_CreateRejections(t *testing.T) {
	tests := []struct {
		name       string
		role       identity.Role
		body       func(env *apiEnv) map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "anonymous",
			role:       "",
			body:       func(env *apiEnv) map[string]any { return map[string]any{} },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name: "missing quantity",
			role: identity.RoleOwner,
			body: func(env *apiEnv) map[string]any {
				return map[string]any{"product_id": env.product.ID, "branch_id": env.central.ID}
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name: "malformed product id",
			role: identity.RoleOwner,
			body: func(env *apiEnv) map[string]any {
				return map[string]any{"product_id": "nope", "branch_id": env.central.ID, "quantity": "1"}
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name: "unknown product",
			role: identity.RoleOwner,
			body: func(env *apiEnv) map[string]any {
				return map[string]any{"product_id": uuid.New(), "branch_id": env.central.ID, "quantity": "1"}
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "PRODUCT_NOT_FOUND",
		},
		{
			name: "cashier at central",
			role: identity.RoleCashier,
			body: func(env *apiEnv) map[string]any {
				return map[string]any{"product_id": env.product.ID, "branch_id": env.central.ID, "quantity": "1"}
			},
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name: "store without central stock",
			role: identity.RoleSupervisor,
			body: func(env *apiEnv) map[string]any {
				return map[string]any{"product_id": env.product.ID, "branch_id": env.store.ID, "quantity": "1"}
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "NO_CENTRAL_STOCK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newAPIEnv(t)
			w := env.do(t, tt.role, http.MethodPost, "/inventory", tt.body(env))
			requireStatus(t, w, tt.wantStatus)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestInventoryHandler_CentralCapAndDuplicates(t *testing.T) {
	env := newAPIEnv(t)
	env.seedRecord(t, env.central.ID, "10", "4")

	w := env.do(t, identity.RoleSupervisor, http.MethodPost, "/inventory", map[string]any{
		"product_id": env.product.ID,
		"branch_id":  env.store.ID,
		"quantity":   "11",
	})
	requireStatus(t, w, http.StatusUnprocessableEntity)
	resp := decode[json.RawMessage](t, w)
	assert.Equal(t, "CENTRAL_STOCK_EXCEEDED", resp.Error.Code)
	assert.Equal(t, "10", resp.Error.Details["available"])

	w = env.do(t, identity.RoleOwner, http.MethodPost, "/inventory", map[string]any{
		"product_id": env.product.ID,
		"branch_id":  env.central.ID,
		"quantity":   "1",
	})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, "ALREADY_EXISTS", errorCode(t, w))
}

func TestInventoryHandler_ReceiveRecomputesAverageCost(t *testing.T) {
	env := newAPIEnv(t)
	id := env.seedRecord(t, env.central.ID, "10", "10")

	w := env.do(t, identity.RoleAdmin, http.MethodPost, "/inventory/"+id.String()+"/receive", map[string]any{
		"quantity":  "10",
		"unit_cost": "20",
		"reference": "GRN-1",
	})

	requireStatus(t, w, http.StatusOK)
	resp := decode[inventoryapp.InventoryResponse](t, w)
	assert.Equal(t, "20", resp.Data.StockCurrent.String())
	assert.Equal(t, "15", resp.Data.AverageCost.String())
}

func TestInventoryHandler_StockNeverGoesNegative(t *testing.T) {
	env := newAPIEnv(t)
	id := env.seedRecord(t, env.central.ID, "5", "2")

	w := env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/remove", map[string]any{
		"quantity": "6",
		"reason":   "shrinkage",
	})
	requireStatus(t, w, http.StatusUnprocessableEntity)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, w))

	w = env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/adjust", map[string]any{
		"delta":  "-6",
		"reason": "count correction",
	})
	requireStatus(t, w, http.StatusUnprocessableEntity)
	assert.Equal(t, "NEGATIVE_STOCK_REJECTED", errorCode(t, w))

	w = env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/adjust", map[string]any{
		"delta":  "-5",
		"reason": "count correction",
	})
	requireStatus(t, w, http.StatusOK)
	assert.True(t, decode[inventoryapp.InventoryResponse](t, w).Data.StockCurrent.IsZero())
}

func TestInventoryHandler_AdjustRequiresReason(t *testing.T) {
	env := newAPIEnv(t)
	id := env.seedRecord(t, env.central.ID, "5", "2")

	w := env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/adjust", map[string]any{"delta": "1"})

	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestInventoryHandler_Transfer(t *testing.T) {
	env := newAPIEnv(t)
	env.seedRecord(t, env.central.ID, "10", "3")

	w := env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/transfer", map[string]any{
		"product_id":   env.product.ID,
		"to_branch_id": env.store.ID,
		"quantity":     "4",
	})

	requireStatus(t, w, http.StatusOK)
	resp := decode[inventoryapp.TransferStockResponse](t, w)
	assert.Equal(t, "6", resp.Data.From.StockCurrent.String())
	assert.Equal(t, "4", resp.Data.To.StockCurrent.String())
	assert.Equal(t, "3", resp.Data.To.AverageCost.String())

	w = env.do(t, identity.RoleSupervisor, http.MethodPost, "/inventory/transfer", map[string]any{
		"product_id":   env.product.ID,
		"to_branch_id": env.store.ID,
		"quantity":     "1",
	})
	requireStatus(t, w, http.StatusForbidden)
}

func TestInventoryHandler_GetAndList(t *testing.T) {
	env := newAPIEnv(t)
	centralID := env.seedRecord(t, env.central.ID, "10", "1")
	env.seedRecord(t, env.store.ID, "2", "")

	w := env.do(t, identity.RoleCashier, http.MethodGet, "/inventory/"+centralID.String(), nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, centralID, decode[inventoryapp.InventoryResponse](t, w).Data.ID)

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory/"+uuid.NewString(), nil)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "INVENTORY_NOT_FOUND", errorCode(t, w))

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory?branch_id="+env.store.ID.String(), nil)
	requireStatus(t, w, http.StatusOK)
	list := decode[[]inventoryapp.InventoryResponse](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(1), list.Meta.Total)
	assert.Equal(t, env.store.ID, list.Data[0].BranchID)

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory?status=bogus", nil)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestInventoryHandler_LowStock(t *testing.T) {
	env := newAPIEnv(t)
	id := env.seedRecord(t, env.central.ID, "3", "1")

	w := env.do(t, identity.RoleOwner, http.MethodPut, "/inventory/"+id.String()+"/thresholds", map[string]any{
		"minimum_stock": "5",
	})
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory/low-stock", nil)
	requireStatus(t, w, http.StatusOK)
	list := decode[[]inventoryapp.InventoryResponse](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, id, list.Data[0].ID)

	w = env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/deactivate", nil)
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory/low-stock", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Empty(t, decode[[]inventoryapp.InventoryResponse](t, w).Data)
}

func TestInventoryHandler_DeactivatedRecordIsFrozen(t *testing.T) {
	env := newAPIEnv(t)
	id := env.seedRecord(t, env.central.ID, "3", "1")

	w := env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/deactivate", nil)
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/adjust", map[string]any{
		"delta":  "1",
		"reason": "found one",
	})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, "INVENTORY_INACTIVE", errorCode(t, w))

	w = env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/reactivate", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "active", decode[inventoryapp.InventoryResponse](t, w).Data.Status)
}

func TestInventoryHandler_ListMovements(t *testing.T) {
	env := newAPIEnv(t)
	id := env.seedRecord(t, env.central.ID, "10", "1")

	w := env.do(t, identity.RoleOwner, http.MethodPost, "/inventory/"+id.String()+"/remove", map[string]any{
		"quantity": "2",
		"reason":   "sample",
	})
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory/"+id.String()+"/movements", nil)
	requireStatus(t, w, http.StatusOK)
	movements := decode[[]inventoryapp.MovementResponse](t, w)
	require.Len(t, movements.Data, 2)

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory/"+id.String()+"/movements?movement_type=OUTBOUND", nil)
	requireStatus(t, w, http.StatusOK)
	movements = decode[[]inventoryapp.MovementResponse](t, w)
	require.Len(t, movements.Data, 1)
	assert.Equal(t, "8", movements.Data[0].BalanceAfter.String())

	w = env.do(t, identity.RoleCashier, http.MethodGet, "/inventory/"+id.String()+"/movements?from=yesterday", nil)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestParseDateTime(t *testing.T) {
	for _, s := range []string{"2024-03-01T10:00:00Z", "2024-03-01", "2024-03-01 10:00:00"} {
		_, err := parseDateTime(s)
		assert.NoError(t, err, s)
	}
	_, err := parseDateTime("03/01/2024")
	assert.Error(t, err)
}
