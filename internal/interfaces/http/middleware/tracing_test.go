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
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})
	return sr
}

func serverSpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.SpanKind() == trace.SpanKindServer {
			return span
		}
	}
	require.Fail(t, "server span not found")
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_RequestSpanAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := setupTestTracer(t)
	svc := newTestJWTService()
	userID := uuid.New()

	router := gin.New()
	router.Use(RequestID(), Tracing(TracingConfig{Enabled: true, ServiceName: "test-service"}), SpanErrorMarker())
	router.Use(JWTAuthMiddleware(svc), TracingAttributeInjector())
	router.GET("/inventory/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/inventory/"+uuid.NewString(), nil)
	req.Header.Set(RequestIDHeader, "trace-req-1")
	req.Header.Set(AuthHeaderKey, bearer(t, svc, userID, identity.RoleAdmin, time.Hour))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	span := serverSpan(t, sr)
	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "trace-req-1", v.AsString())
	v, ok = spanAttr(span, "user_id")
	require.True(t, ok)
	assert.Equal(t, userID.String(), v.AsString())
	v, ok = spanAttr(span, "actor_role")
	require.True(t, ok)
	assert.Equal(t, "admin", v.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		status    int
		wantError bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, true},
		{http.StatusForbidden, true},
		{http.StatusConflict, true},
		{http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			sr := setupTestTracer(t)

			router := gin.New()
			router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "test-service"}), SpanErrorMarker())
			router.GET("/test", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			span := serverSpan(t, sr)
			assert.Equal(t, tt.wantError, span.Status().Code == codes.Error)
		})
	}
}

func TestSpanErrorMarker_WithoutSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SpanErrorMarker(), TracingAttributeInjector())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
