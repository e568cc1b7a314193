package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/tbourn/go-channel-digest/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	prevExp, prevRes, prevProc := newExporter, newResource, spanProcessor
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		newExporter, newResource, spanProcessor = prevExp, prevRes, prevProc
	})
}

func enabled(name string) config.OTELConfig {
	return config.OTELConfig{Enabled: true, Insecure: true, Endpoint: "localhost:4317", ServiceName: name, SampleRatio: 1}
}

func TestSetup_Disabled_NoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prev := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("Setup disabled = %v, %v", shutdown, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTracerProvider() != prev {
		t.Fatalf("disabled setup must not touch globals")
	}
}

func TestSetup_RecordsSpansWithServiceResource(t *testing.T) {
	preserveOTelGlobals(t)
	mem := tracetest.NewInMemoryExporter()
	newExporter = func(context.Context, config.OTELConfig) (sdktrace.SpanExporter, error) { return mem, nil }
	spanProcessor = func(exp sdktrace.SpanExporter) sdktrace.SpanProcessor { return sdktrace.NewSimpleSpanProcessor(exp) }

	shutdown, err := Setup(context.Background(), enabled("channel-digest"), "v1.2.3")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "SummarizeForUser")
	span.End()

	spans := mem.GetSpans()
	if len(spans) != 1 || spans[0].Name != "SummarizeForUser" {
		t.Fatalf("spans = %+v", spans)
	}
	var svc string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == semconv.ServiceNameKey {
			svc = kv.Value.AsString()
		}
	}
	if svc != "channel-digest" {
		t.Fatalf("service.name = %q", svc)
	}

	carrier := propagation.MapCarrier{}
	ctx, s2 := otel.Tracer("test").Start(context.Background(), "outbound")
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	s2.End()
	if carrier.Get("traceparent") == "" {
		t.Fatalf("traceparent not injected")
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetup_RealExporter_LazyConnect(t *testing.T) {
	preserveOTelGlobals(t)

	for _, insecure := range []bool{true, false} {
		cfg := enabled("svc")
		cfg.Insecure = insecure
		shutdown, err := Setup(context.Background(), cfg, "v0")
		if err != nil {
			t.Fatalf("Setup(insecure=%v): %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("expected *sdktrace.TracerProvider")
		}
		_ = Shutdown(shutdown, 100*time.Millisecond)
	}
}

func TestSetup_Errors_LeaveGlobalsIntact(t *testing.T) {
	cases := map[string]func(){
		"exporter": func() {
			newExporter = func(context.Context, config.OTELConfig) (sdktrace.SpanExporter, error) {
				return nil, errors.New("boom-exporter")
			}
		},
		"resource": func() {
			newExporter = func(context.Context, config.OTELConfig) (sdktrace.SpanExporter, error) {
				return tracetest.NewInMemoryExporter(), nil
			}
			newResource = func(context.Context, string, string) (*resource.Resource, error) {
				return nil, errors.New("boom-resource")
			}
		},
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			preserveOTelGlobals(t)
			breakIt()
			prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()

			if _, err := Setup(context.Background(), enabled("svc"), "v0"); err == nil {
				t.Fatalf("expected error")
			}
			if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
				t.Fatalf("globals changed on failure")
			}
		})
	}
}

func TestSampler(t *testing.T) {
	for ratio, want := range map[float64]string{
		1:   "ParentBased{root:AlwaysOnSampler",
		0:   "ParentBased{root:AlwaysOffSampler",
		0.5: "ParentBased{root:TraceIDRatioBased{0.5}",
	} {
		if got := Sampler(ratio).Description(); len(got) < len(want) || got[:len(want)] != want {
			t.Fatalf("Sampler(%v) = %q; want prefix %q", ratio, got, want)
		}
	}
}

func TestShutdown_NilAndError(t *testing.T) {
	if err := Shutdown(nil, time.Second); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}
	boom := errors.New("flush failed")
	if err := Shutdown(func(context.Context) error { return boom }, time.Second); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if err := Shutdown(func(context.Context) error { return context.DeadlineExceeded }, time.Second); err != nil {
		t.Fatalf("deadline errors should be swallowed: %v", err)
	}
}
