package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func TestWithContext(t *testing.T) {
	logger := zap.NewExample()

	ctx := WithContext(context.Background(), logger)

	assert.Equal(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	// An unadorned context yields a usable no-op logger.
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Info("test message")
	})
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	logger := FromContext(ctx)

	assert.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Info("test")
	})
}

func TestContextEnrichment(t *testing.T) {
	base := zap.NewExample()
	ctx := context.Background()

	ctx, logger := WithRequestID(ctx, base, "req-1")
	ctx, logger = WithTenantID(ctx, logger, "tenant-1")
	ctx, logger = WithUserID(ctx, logger, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))

	// The enriched logger replaces the original in the context so
	// downstream callers pick up the accumulated fields.
	assert.Equal(t, logger, FromContext(ctx))
	assert.NotEqual(t, base, logger)
}

func TestGetters_NotFound(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetTenantID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestWithRequestID_Overrides(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, logger, "first-id")
	assert.Equal(t, "first-id", GetRequestID(ctx))

	ctx, _ = WithRequestID(ctx, logger, "second-id")
	assert.Equal(t, "second-id", GetRequestID(ctx))
}

func TestContextKeys(t *testing.T) {
	assert.NotEqual(t, LoggerKey, RequestIDKey)
	assert.NotEqual(t, RequestIDKey, TenantIDKey)
	assert.NotEqual(t, TenantIDKey, UserIDKey)
	assert.NotEqual(t, LoggerKey, UserIDKey)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestGetTraceID_InvalidSpanContext(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	// The noop tracer produces spans with an invalid span context.
	assert.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	assert.Empty(t, GetTraceID(ctx))
}
