package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "smbd", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "smb.test")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	span := SpanFromContext(context.Background())
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("boom"))
		RecordError(ctx, nil)
	})
}

func TestSetStatusAndAttributes(t *testing.T) {
	ctx := context.Background()
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
		SetAttributes(ctx, SMBCommand("READ"))
	})
}

func TestTraceIDAndSpanIDWithoutActiveSpan(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", TraceID(ctx))
	assert.Equal(t, "", SpanID(ctx))
}

func TestStartSMBSpan(t *testing.T) {
	ctx := context.Background()
	_, span := StartSMBSpan(ctx, "CREATE", FSShare("public"))
	require.NotNil(t, span)
	span.End()
}
