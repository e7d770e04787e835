package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func TestNavigationAndPhaseSpans(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, navSpan := sm.StartNavigationSpan(context.Background(), 9, "api", "/a/b")
	_, phaseSpan := sm.StartPhaseSpan(ctx, "canLoad")
	sm.EndSpanWithError(phaseSpan, nil)
	sm.EndSpanWithError(navSpan, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	phase, nav := spans[0], spans[1]
	assert.Equal(t, "navgraph.phase.canLoad", phase.Name)
	assert.Equal(t, "navgraph.navigation", nav.Name)
	assert.Equal(t, nav.SpanContext.SpanID(), phase.Parent.SpanID())
	assert.Equal(t, codes.Ok, nav.Status.Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range nav.Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(9), attrs["transition.id"].AsInt64())
	assert.Equal(t, "/a/b", attrs["navigation.url"].AsString())
}

func TestEndSpanWithError(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartNavigationSpan(context.Background(), 1, "api", "/x")
	sm.EndSpanWithError(span, errors.New("unknown route"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "unknown route", spans[0].Status.Description)
	assert.NotEmpty(t, spans[0].Events, "error recorded as span event")

	assert.NotPanics(t, func() { sm.EndSpanWithError(nil, nil) })
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartNavigationSpan(context.Background(), 1, "api", "/x")
	sm.AddSpanEvent(ctx, "redirect", attribute.String("to", "/login"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "redirect", spans[0].Events[0].Name)

	assert.NotPanics(t, func() { sm.AddSpanEvent(context.Background(), "orphan") })
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	got, span := sm.StartNavigationSpan(ctx, 1, "api", "/")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())

	got, span = sm.StartPhaseSpan(ctx, "swap")
	assert.Equal(t, ctx, got)
	sm.EndSpanWithError(span, errors.New("x"))
	sm.AddSpanEvent(ctx, "x")
}
