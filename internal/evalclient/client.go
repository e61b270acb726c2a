// Package evalclient talks to the external evaluation service: one multipart
// POST per call, a fixed time bound, and no retries.
package evalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/validation"
)

const (
	// DefaultBaseURL is where the evaluation service listens by default.
	DefaultBaseURL = "http://localhost:9000"
	// DefaultTimeout bounds every request.
	DefaultTimeout = 20 * time.Second

	chatPath       = "/"
	evaluationPath = "/evaluation"

	maxResponseSize = 32 << 20
)

// RequestIDHeader carries the per-call request id.
const RequestIDHeader = "X-Request-ID"

// Client is an evaluation service client.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the service URL. Defaults to DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout overrides the per-request bound. Non-positive values are
// ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("github.com/mohitsingh538/llm-metrics-evaluation/internal/evalclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SubmitEvaluation posts an evaluation form and returns the parsed response.
func (c *Client) SubmitEvaluation(ctx context.Context, form models.EvaluationForm) (*models.EvaluationResponse, error) {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "evalclient.SubmitEvaluation", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("llm.model", form.Model),
		attribute.StringSlice("llm.metrics", form.Metrics),
	))
	defer span.End()

	body, contentType, err := encodeEvaluationForm(form)
	if err != nil {
		return nil, endSpan(span, fmt.Errorf("encoding evaluation form: %w", err))
	}

	data, err := c.post(ctx, evaluationPath, body, contentType, requestID)
	if err != nil {
		return nil, endSpan(span, err)
	}

	if errs := validation.ValidateEvaluationResponseBytes(data); len(errs) > 0 {
		c.logger.Warn("invalid evaluation response", "request_id", requestID, "problems", errs)
		return nil, endSpan(span, fmt.Errorf("%w: %s", ErrInvalidResponseShape, strings.Join(errs, "; ")))
	}

	var resp models.EvaluationResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, endSpan(span, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err))
	}

	c.logger.Debug("evaluation response",
		"request_id", requestID,
		"conversations", len(resp.Data.Conversations),
		"metrics", resp.Data.AverageScores.Names())
	return &resp, nil
}

// SubmitChatQuery posts a chat message and returns the reply text.
func (c *Client) SubmitChatQuery(ctx context.Context, message string) (string, error) {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "evalclient.SubmitChatQuery", trace.WithAttributes(
		attribute.String("request.id", requestID),
	))
	defer span.End()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("message", message); err != nil {
		return "", endSpan(span, fmt.Errorf("encoding chat form: %w", err))
	}
	if err := w.Close(); err != nil {
		return "", endSpan(span, fmt.Errorf("encoding chat form: %w", err))
	}

	data, err := c.post(ctx, chatPath, &buf, w.FormDataContentType(), requestID)
	if err != nil {
		return "", endSpan(span, err)
	}

	if errs := validation.ValidateChatResponseBytes(data); len(errs) > 0 {
		c.logger.Warn("invalid chat response", "request_id", requestID, "problems", errs)
		return "", endSpan(span, fmt.Errorf("%w: %s", ErrInvalidResponseShape, strings.Join(errs, "; ")))
	}

	var resp models.ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", endSpan(span, fmt.Errorf("%w: %v", ErrInvalidResponseShape, err))
	}
	return resp.Data, nil
}

// post sends one bounded request and returns the 2xx body.
func (c *Client) post(ctx context.Context, path string, body io.Reader, contentType, requestID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	c.logger.Debug("http request", "method", req.Method, "url", req.URL.String(), "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = classify(ctx, err)
		c.logger.Debug("http request failed",
			"url", req.URL.String(),
			"request_id", requestID,
			"kind", Kind(err),
			"duration", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classify(ctx, err)
	}

	c.logger.Debug("http response",
		"url", req.URL.String(),
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body: %s", truncate(string(data), 200)),
		}
	}
	return data, nil
}

// classify maps a transport failure onto ErrTimeout or *TransportError.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return &TransportError{Err: err}
}

func encodeEvaluationForm(form models.EvaluationForm) (*bytes.Buffer, string, error) {
	metrics := form.Metrics
	if metrics == nil {
		metrics = []string{}
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"model", form.Model},
		{"metrics", string(metricsJSON)},
		{"context", form.Context},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if form.File != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="conversation_file"; filename="%s"`,
			quoteEscaper.Replace(fileName(form.File.Name))))
		h.Set("Content-Type", "application/json")
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(form.File.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileName(name string) string {
	if name == "" {
		return "conversation.json"
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func endSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, Kind(err))
	span.SetAttributes(attribute.String("failure.kind", Kind(err)))
	return err
}
