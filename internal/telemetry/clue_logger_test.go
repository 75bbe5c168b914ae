package telemetry_test

import (
	"context"
	"testing"

	"goa.design/clue/log"

	"github.com/stackoverflowed/nifimcp/internal/telemetry"
)

func TestClueLogger(t *testing.T) {
	ctx := log.Context(context.Background(), log.WithFormat(log.FormatJSON))
	logger := telemetry.NewClueLogger()

	logger.Debug(ctx, "debug message", "key", "value")
	logger.Info(ctx, "info message", "key", "value")
	logger.Warn(ctx, "warn message", "key", "value")
	logger.Error(ctx, "error message", "key", "value")
	// Odd-length keyvals: last key paired with nil rather than panicking.
	logger.Info(ctx, "odd keyvals", "dangling")
}

func TestClueTracer(t *testing.T) {
	ctx := context.Background()
	tracer := telemetry.NewClueTracer("nifimcp/test")

	newCtx, span := tracer.Start(ctx, "test.operation")
	if newCtx == nil {
		t.Fatal("expected non-nil context")
	}
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	span.AddEvent("test.event", "key", "value")
	span.End()
}
