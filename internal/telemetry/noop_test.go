package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/stackoverflowed/nifimcp/internal/telemetry"
)

func TestNoopLogger(t *testing.T) {
	ctx := context.Background()
	logger := telemetry.NoopLogger{}

	logger.Debug(ctx, "debug message", "key", "value")
	logger.Info(ctx, "info message", "key", "value")
	logger.Warn(ctx, "warn message", "key", "value")
	logger.Error(ctx, "error message", "key", "value")
}

func TestNoopMetrics(t *testing.T) {
	metrics := telemetry.NoopMetrics{}

	metrics.IncCounter("test.counter", 1.0, "env", "test")
	metrics.RecordTimer("test.timer", 100*time.Millisecond, "env", "test")
	metrics.RecordGauge("test.gauge", 42.0, "env", "test")
}

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	tracer := telemetry.NoopTracer{}

	newCtx, span := tracer.Start(ctx, "test.operation")
	if newCtx != ctx {
		t.Error("expected noop tracer to return same context")
	}
	if span == nil {
		t.Fatal("expected non-nil span")
	}

	span.AddEvent("test.event", "key", "value")
	span.SetStatus(codes.Ok, "completed")
	span.RecordError(errors.New("test error"))
	span.End()
}
