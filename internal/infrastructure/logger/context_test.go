package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]string {
	m := make(map[string]string, len(entry.Context))
	for _, f := range entry.Context {
		m[f.Key] = f.String
	}
	return m
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestWithRequestIDAndActor(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, _ := WithRequestID(context.Background(), zap.New(core), "req-1")
	ctx, l := WithActorID(ctx, FromContext(ctx), "actor-1")
	l.Info("Return approved")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "actor-1", GetActorID(ctx))

	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "actor-1", fields["actor_id"])
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetActorID(ctx))
	assert.Nil(t, TraceFields(ctx))
}

func TestL_AddsTraceFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(spanContext(t), zap.New(core))

	L(ctx).Info("Stock removed")

	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestL_WithoutSpan(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	L(ctx).Info("Stock removed")

	_, hasTrace := fieldMap(recorded.All()[0])["trace_id"]
	assert.False(t, hasTrace)
}
