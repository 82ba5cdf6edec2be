// Command datagen builds data files from a YAML job list.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/INLOpen/datafile/config"
	"github.com/INLOpen/datafile/sys"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/term"
)

// createLogger creates a slog.Logger based on the provided configuration.
func createLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var output io.Writer
	var closer io.Closer
	isTerminal := false
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
		isTerminal = term.IsTerminal(int(os.Stdout.Fd()))
	case "stderr":
		output = os.Stderr
		isTerminal = term.IsTerminal(int(os.Stderr.Fd()))
	case "file":
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("log output is 'file' but no file path is specified")
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		output = file
		closer = file
	case "none":
		output = io.Discard
	default:
		return nil, nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.New(slog.NewTextHandler(output, opts)), closer, nil
	case "json":
		return slog.New(slog.NewJSONHandler(output, opts)), closer, nil
	case "", "auto":
		if isTerminal {
			return slog.New(slog.NewTextHandler(output, opts)), closer, nil
		}
		return slog.New(slog.NewJSONHandler(output, opts)), closer, nil
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}
}

// newTracerProvider returns the provider every job traces through. With
// tracing disabled it is a no-op provider and shutdown does nothing. The
// batcher flushes on shutdown, which the caller bounds with ctx.
func newTracerProvider(ctx context.Context, cfg config.TracingConfig) (trace.TracerProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("datagen")),
		resource.WithHost(),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(res),
	)
	return tp, tp.Shutdown, nil
}

func newSpanExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	var client otlptrace.Client
	switch strings.ToLower(cfg.Protocol) {
	case "http":
		client = otlptracehttp.NewClient(otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
	case "grpc":
		client = otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
	default:
		return nil, fmt.Errorf("unsupported tracing protocol: %q", cfg.Protocol)
	}
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s trace exporter for %s: %w", cfg.Protocol, cfg.Endpoint, err)
	}
	return exporter, nil
}

func main() {
	configPath := flag.String("config", "datagen.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := createLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to create logger", "error", err)
		os.Exit(1)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	if cfg.Tracing.Enabled {
		logger.Info("Exporting traces", "protocol", cfg.Tracing.Protocol, "endpoint", cfg.Tracing.Endpoint)
	}
	tp, shutdownTracing, err := newTracerProvider(context.Background(), cfg.Tracing)
	if err != nil {
		logger.Error("Failed to initialize tracer provider", "error", err)
		os.Exit(1)
	}

	sys.SetDebugMode(cfg.Output.DebugFiles)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	results, err := run(ctx, cfg, logger, tp)
	stop()

	flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if serr := shutdownTracing(flushCtx); serr != nil {
		logger.Warn("Failed to flush traces", "error", serr)
	}
	cancel()
	if leaked := sys.OpenHandles(); len(leaked) > 0 {
		logger.Warn("Data file handles left open", "files", leaked)
	}
	if err != nil {
		logger.Error("Packaging failed", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		fmt.Printf("%s\t%d\t%s\n", r.Path, r.PayloadLen, r.Digest)
	}
}
