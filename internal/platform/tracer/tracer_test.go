package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	got, span := NewNoop().Start(ctx, "stage", String("k", "v"))
	assert.Equal(t, ctx, got)
	span.SetAttributes(Bool("ok", true))
	span.AddEvent("event")
	span.End(errors.New("ignored"))
}

func TestOTelTracer_WithInjectedTracer(t *testing.T) {
	tr := NewOTel("docverify/test", WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), "stage", Int("pages", 1), Float64("distance", 0.3))
	assert.NotNil(t, ctx)
	span.SetAttributes(String("document", "selfie"))
	span.AddEvent("decoded")
	span.End(errors.New("failed"))
}

func TestToOTelAttributes_SkipsUnsupportedTypes(t *testing.T) {
	attrs := toOTelAttributes([]Attribute{
		String("a", "x"),
		{Key: "b", Value: []int{1}},
		{Key: "c", Value: int64(3)},
	})
	assert.Len(t, attrs, 2)
	assert.Nil(t, toOTelAttributes(nil))
}
