package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	before := otel.GetTracerProvider()
	shutdown, err := SetupTracing(context.Background(), "tco-test")
	if err != nil {
		t.Fatal(err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatal("tracer provider should be left alone without an endpoint")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestSetupTracingWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://127.0.0.1:4318")
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := SetupTracing(context.Background(), "tco-test")
	if err != nil {
		t.Fatal(err)
	}
	if otel.GetTracerProvider() == before {
		t.Fatal("expected an sdk tracer provider to be installed")
	}
	// Nothing was recorded, so shutdown does not need the collector.
	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{false, true} {
		logger, err := NewLogger("tco-test", debug)
		if err != nil {
			t.Fatal(err)
		}
		if got := logger.Core().Enabled(-1); got != debug {
			t.Fatalf("debug=%v: debug level enabled=%v", debug, got)
		}
	}
}
