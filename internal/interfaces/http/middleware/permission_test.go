package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService()
	guard := RequireRoleWithConfig(PermissionConfig{Logger: zaptest.NewLogger(t)},
		identity.RoleOwner, identity.RoleAdmin, identity.RoleSupervisor)

	tests := []struct {
		role identity.Role
		want int
	}{
		{identity.RoleOwner, http.StatusOK},
		{identity.RoleAdmin, http.StatusOK},
		{identity.RoleSupervisor, http.StatusOK},
		{identity.RoleCashier, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set(AuthHeaderKey, bearer(t, svc, uuid.New(), tt.role, time.Hour))
			w := httptest.NewRecorder()
			newAuthRouter(svc, guard).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "FORBIDDEN")
			}
		})
	}
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/open", RequireRole(identity.RoleOwner), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHasRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, HasRole(c, identity.RoleOwner))

	c.Set(ActorKey, identity.Actor{UserID: uuid.New(), Role: identity.RoleCashier})
	assert.True(t, HasRole(c, identity.RoleAdmin, identity.RoleCashier))
	assert.False(t, HasRole(c, identity.RoleAdmin))
}
