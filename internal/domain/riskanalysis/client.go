package riskanalysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 10 << 20

// UpstreamError is a failed classifier call. Transport failures carry
// 502 Bad Gateway; non-2xx answers carry the classifier's own status.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier unreachable: %v", e.Err)
	}
	return fmt.Sprintf("classifier returned %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Classifier posts a payload and returns the raw response body of a 2xx
// answer.
type Classifier interface {
	Classify(ctx context.Context, payload any) ([]byte, error)
}

type Client struct {
	url        string
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("github.com/smartdent/smartdent/internal/domain/riskanalysis"),
	}
}

func (c *Client) Classify(ctx context.Context, payload any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "classifier.analyse", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.url", c.url))

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode classifier payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, &UpstreamError{StatusCode: http.StatusBadGateway, Body: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, &UpstreamError{StatusCode: http.StatusBadGateway, Body: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
