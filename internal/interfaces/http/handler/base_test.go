package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/infrastructure/logger"
	"github.com/retail/backend/internal/interfaces/http/dto"
	"github.com/retail/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(logger.RequestIDKey, "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(logger.RequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_Created(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Created(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.NewNotFoundError("INVENTORY_NOT_FOUND", "Inventory record"), http.StatusNotFound, "INVENTORY_NOT_FOUND"},
		{"validation", shared.NewValidationError("quantity", "Quantity must be positive"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"business rule", shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock"), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"central cap", shared.NewDomainError("CENTRAL_STOCK_EXCEEDED", "Exceeds central stock"), http.StatusUnprocessableEntity, "CENTRAL_STOCK_EXCEEDED"},
		{"approved return", shared.NewDomainError("RETURN_CANNOT_REVERT", "Approved returns are final"), http.StatusConflict, "RETURN_CANNOT_REVERT"},
		{"duplicate", shared.NewDomainError("ALREADY_EXISTS", "Record exists"), http.StatusConflict, "ALREADY_EXISTS"},
		{"forbidden", shared.NewForbiddenError("Only owners may touch central stock"), http.StatusForbidden, "FORBIDDEN"},
		{"wrapped domain error", fmt.Errorf("tx: %w", shared.NewDomainError("SALE_NOT_FOUND", "Sale not found")), http.StatusNotFound, "SALE_NOT_FOUND"},
		{"plain error", errors.New("pq: connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			c.Set(logger.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorHidesInternalMessage(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, errors.New("password=secret"))

	assert.NotContains(t, w.Body.String(), "secret")
}

func TestBaseHandler_HandleErrorKeepsDetails(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock").WithDetail("available", "3"))

	resp := decodeResponse(t, w)
	assert.Equal(t, "3", resp.Error.Details["available"])
}

func TestBaseHandler_PathID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		h.Success(c, id)
	})

	t.Run("valid", func(t *testing.T) {
		id := uuid.New()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+id.String(), nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), id.String())
	})

	t.Run("invalid", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})
}

func TestBaseHandler_ActorRequired(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := h.actor(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseOptionalID(t *testing.T) {
	id, err := parseOptionalID("")
	require.NoError(t, err)
	assert.Nil(t, id)

	want := uuid.New()
	id, err = parseOptionalID(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, *id)

	_, err = parseOptionalID("bogus")
	assert.Error(t, err)
}
