package account

import (
	"context"
	"log/slog"

	"github.com/go-training/account-linker/pkg/core"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

/*
AddRequestAttributes sets attributes on the current trace span. Without a
recording span the attributes are logged at debug level instead, with the
trace and span ids when the context carries them.
*/
func AddRequestAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
		return
	}

	logAttrs := make([]slog.Attr, 0, len(attrs)+3)
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(string(attr.Key), attr.Value.AsInterface()))
	}
	logAttrs = append(logAttrs, slog.Bool("observability.fallback", true))
	sc := span.SpanContext()
	if sc.HasTraceID() {
		logAttrs = append(logAttrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		logAttrs = append(logAttrs, slog.String("span_id", sc.SpanID().String()))
	}
	core.LoggerFromCtx(ctx).LogAttrs(ctx, slog.LevelDebug, "Request attributes", logAttrs...)
}
