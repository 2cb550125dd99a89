package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)), rec
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestMiddleware_RecordsSpan(t *testing.T) {
	tp, spans := newRecordingProvider()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/patients/7", nil), rec)
	c.SetPath("/api/v1/patients/:id")
	c.Set("request_id", "req-1")

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	if err := Middleware(tp)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ended := spans.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	span := ended[0]
	if span.Name() != "GET /api/v1/patients/:id" {
		t.Errorf("span name = %q", span.Name())
	}
	if !hasAttr(span.Attributes(), attribute.Int("http.response.status_code", 200)) {
		t.Errorf("missing status attribute: %v", span.Attributes())
	}
	if !hasAttr(span.Attributes(), attribute.String("request.id", "req-1")) {
		t.Errorf("missing request id attribute: %v", span.Attributes())
	}
	if rec.Header().Get(TraceIDHeader) != span.SpanContext().TraceID().String() {
		t.Errorf("trace id header = %q", rec.Header().Get(TraceIDHeader))
	}
}

func TestMiddleware_ServerErrorMarksSpan(t *testing.T) {
	tp, spans := newRecordingProvider()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/analysis", nil), httptest.NewRecorder())

	handler := func(echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") }
	_ = Middleware(tp)(handler)(c)

	span := spans.Ended()[0]
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want error", span.Status().Code)
	}
}

func hasAttr(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv.Key == want.Key && kv.Value == want.Value {
			return true
		}
	}
	return false
}
