// Package telemetry spans de negocio sobre OpenTelemetry. Sin proveedor configurado
// otel usa un tracer no-op, así que los casos de uso pueden instrumentarse siempre.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName nombre del tracer de la API.
const TracerName = "ventas-api"

// StartSpan inicia un span "{servicio}.{método}".
//
//	ctx, span := telemetry.StartSpan(ctx, "payment", "process", attribute.String("sale_id", id))
//	defer func() { telemetry.End(span, err) }()
func StartSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End registra el error (si hay) y cierra el span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
