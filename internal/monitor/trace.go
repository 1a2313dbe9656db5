package monitor

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var monitorTracer = otel.Tracer("scorewatch/internal/monitor")
var monitorNoopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, monitorNoopSpan
	}
	return monitorTracer.Start(ctx, name)
}
