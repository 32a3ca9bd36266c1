// Package tracer provides a lightweight tracing abstraction.
//
// Callers depend on the Tracer interface rather than on OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import "context"

// Tracer starts spans.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is an in-flight unit of work.
type Span interface {
	// End completes the span, recording err when non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Attribute is a key/value pair attached to spans and events.
// Supported value types: string, bool, int, int64, float64.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

// Int creates an integer attribute.
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

// Float64 creates a float attribute.
func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }
