// Package middleware provides the HTTP middleware of the inventory service.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retail/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds request ids copied into span attributes
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing wraps otelgin. Spans are named after the matched route.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanErrorMarker tags the request span with the request id and marks it
// failed for responses of 400 and above. It must be registered after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := c.GetString(logger.RequestIDKey); id != "" {
			if len(id) > MaxRequestIDLength {
				id = id[:MaxRequestIDLength]
			}
			span.SetAttributes(attribute.String("request_id", id))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

// TracingAttributeInjector adds the authenticated actor to the request span.
// It must run after JWTAuthMiddleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if actor, ok := GetActor(c); ok && span.IsRecording() {
			span.SetAttributes(
				attribute.String("user_id", actor.UserID.String()),
				attribute.String("actor_role", actor.Role.String()),
			)
		}
		c.Next()
	}
}
