package tracing

import (
	"context"
	"testing"

	"github.com/hilthontt/chatkit/internal/configs"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	tp, shutdown, err := InitTracer(context.Background(), configs.TracingConfig{})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if tp == nil {
		t.Fatal("expected a provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("a disabled tracer must not replace the global provider")
	}
}

func TestInitTracer_Enabled(t *testing.T) {
	tp, shutdown, err := InitTracer(context.Background(), configs.TracingConfig{
		Enabled:     true,
		ServiceName: "chatkit-test",
		Environment: "test",
		Endpoint:    "http://127.0.0.1:1/v1/traces",
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	_, span := tp.Tracer("test").Start(context.Background(), "span")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span from the sdk provider")
	}
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
