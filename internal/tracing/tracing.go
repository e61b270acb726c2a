// Package tracing installs an OpenTelemetry tracer provider for the CLI.
// Spans are written to a console exporter; nothing leaves the process.
package tracing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "llmeval"

// Config holds tracing settings.
type Config struct {
	// Writer receives pretty-printed spans. Defaults to os.Stderr.
	Writer io.Writer

	// Exporter overrides the console exporter, e.g. with an in-memory
	// exporter in tests.
	Exporter sdktrace.SpanExporter

	// Synchronous exports each span as it ends instead of batching.
	Synchronous bool

	Logger *slog.Logger
}

// ShutdownFunc flushes pending spans and releases the provider.
type ShutdownFunc func(context.Context) error

// Enable builds a tracer provider, registers it globally and returns its
// shutdown function.
func Enable(cfg Config) (ShutdownFunc, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	exporter := cfg.Exporter
	if exporter == nil {
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		var err error
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Debug("created console trace exporter")
	}

	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))

	var processor sdktrace.SpanProcessor
	if cfg.Synchronous {
		processor = sdktrace.NewSimpleSpanProcessor(exporter)
	} else {
		processor = sdktrace.NewBatchSpanProcessor(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(processor),
	)
	otel.SetTracerProvider(tp)
	log.Debug("registered tracer provider")

	return tp.Shutdown, nil
}

// Noop is the ShutdownFunc used when tracing is disabled.
func Noop(context.Context) error { return nil }
