// Package telemetry wraps OpenTelemetry tracing for backend calls.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by this module.
const InstrumentationName = "github.com/input-output-hk/catalyst-forge-libs/transfer"

// Attribute keys for transfer spans.
const (
	AttrBackend   = "storage.backend"
	AttrContainer = "storage.container"
	AttrKey       = "storage.key"
	AttrSession   = "transfer.session_id"
	AttrPart      = "transfer.part_number"
	AttrSize      = "transfer.size"
	AttrPath      = "transfer.path"
	AttrRange     = "transfer.range"
)

// Tracer creates spans for transfer operations.
type Tracer struct {
	tracer trace.Tracer
}

// New creates a Tracer from tp. A nil provider uses the global provider,
// which is a no-op unless the application installed one.
func New(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(InstrumentationName)}
}

// Start starts a span named "transfer.<operation>".
func (t *Tracer) Start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "transfer."+operation, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Backend returns an attribute for the backend name
func Backend(name string) attribute.KeyValue {
	return attribute.String(AttrBackend, name)
}

// Container returns an attribute for the container name
func Container(name string) attribute.KeyValue {
	return attribute.String(AttrContainer, name)
}

// Key returns an attribute for the object key
func Key(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Session returns an attribute for the multipart session id
func Session(id string) attribute.KeyValue {
	return attribute.String(AttrSession, id)
}

// Part returns an attribute for the part number
func Part(n int32) attribute.KeyValue {
	return attribute.Int64(AttrPart, int64(n))
}

// Size returns an attribute for a byte count
func Size(n int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, n)
}

// Path returns an attribute for the chosen transfer path
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// Range returns an attribute for a copied byte range
func Range(r string) attribute.KeyValue {
	return attribute.String(AttrRange, r)
}
