package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/infrastructure/logger"
	"github.com/retail/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
}

// RequireRole allows the request through only when the actor holds one of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(PermissionConfig{}, roles...)
}

// RequireRoleWithConfig is RequireRole with custom configuration
func RequireRoleWithConfig(cfg PermissionConfig, roles ...identity.Role) gin.HandlerFunc {
	allowed := make(map[identity.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(logger.RequestIDKey)))
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			handlePermissionDenied(c, cfg, actor, roles)
			return
		}
		c.Next()
	}
}

// HasRole reports whether the authenticated actor holds one of roles
func HasRole(c *gin.Context, roles ...identity.Role) bool {
	actor, ok := GetActor(c)
	if !ok {
		return false
	}
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, actor identity.Actor, required []identity.Role) {
	if cfg.Logger != nil {
		names := make([]string, len(required))
		for i, r := range required {
			names[i] = r.String()
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("user_id", actor.UserID.String()),
			zap.String("role", actor.Role.String()),
			zap.Strings("required_roles", names),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden, "Access denied: insufficient role", c.GetString(logger.RequestIDKey)))
}
