package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/signal-hunter/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	tracerName = "github.com/signalsfoundry/signal-hunter"

	defaultServiceName  = "signal-hunter"
	defaultOTLPEndpoint = "localhost:4317"
	// DefaultTickBatch is one second of play at 30 ticks per second.
	DefaultTickBatch = 30
)

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | otlp
	Endpoint    string // used when Exporter == otlp
	SampleRatio float64
	// TickBatch is how many ticks share one span; see TickBatch.
	TickBatch int
	// Writer receives stdout exporter output; defaults to os.Stdout.
	Writer io.Writer
}

// TracingConfigFromEnv reads HUNT_TRACING_* and HUNT_OTLP_ENDPOINT. Values
// that do not parse fall back to the defaults.
func TracingConfigFromEnv() TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("HUNT_TRACING_ENABLED"), "true"),
		ServiceName: envDefault("HUNT_TRACING_SERVICE_NAME", defaultServiceName),
		Exporter:    strings.ToLower(envDefault("HUNT_TRACING_EXPORTER", "stdout")),
		Endpoint:    os.Getenv("HUNT_OTLP_ENDPOINT"),
		SampleRatio: 1,
		TickBatch:   DefaultTickBatch,
	}
	if r, err := strconv.ParseFloat(os.Getenv("HUNT_TRACING_SAMPLE_RATIO"), 64); err == nil && r >= 0 && r <= 1 {
		cfg.SampleRatio = r
	}
	if n, err := strconv.Atoi(os.Getenv("HUNT_TRACING_TICK_BATCH")); err == nil && n > 0 {
		cfg.TickBatch = n
	}
	return cfg
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type exporterFactory func(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFactory{
	"":         stdoutExporter,
	"stdout":   stdoutExporter,
	"otlp":     otlpExporter,
	"otlpgrpc": otlpExporter,
}

func stdoutExporter(_ context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	return stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
}

func otlpExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	))
}

// InitTracing installs the global tracer provider. With tracing disabled a
// noop provider is installed so spans cost nothing. The returned function
// flushes and stops the exporter.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	otel.SetTextMapPropagator(propagation.TraceContext{})

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	factory, ok := exporters[strings.ToLower(cfg.Exporter)]
	if !ok {
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
	exp, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}

	service := cfg.ServiceName
	if service == "" {
		service = defaultServiceName
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", service),
		attribute.String("service.namespace", "hunt"),
		attribute.Int("hunt.tick_batch", cfg.TickBatch),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", service),
		logging.Float64("sample_ratio", cfg.SampleRatio),
		logging.Int("tick_batch", cfg.TickBatch),
	)
	return tp.Shutdown, nil
}

// StartSpan starts a span for a player action. The match ID on ctx, if any,
// is attached as an attribute.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if id := logging.MatchIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("match_id", id))
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// TickBatch covers runs of consecutive ticks with a single span, so a
// 30 Hz loop does not emit a span per tick. The span records how many ticks
// it covers, the simulated interval, the peak audible count and the
// discoveries made. TickBatch is not safe for concurrent use; it belongs to
// the goroutine running the loop.
type TickBatch struct {
	size int

	span      trace.Span
	ticks     int
	peak      int
	found     int
	simStart  time.Time
	simLatest time.Time
}

// NewTickBatch returns a batch closing its span every size ticks. A
// non-positive size means DefaultTickBatch.
func NewTickBatch(size int) *TickBatch {
	if size <= 0 {
		size = DefaultTickBatch
	}
	return &TickBatch{size: size}
}

// Observe records one tick, opening a span when none is open and ending it
// once the batch is full.
func (b *TickBatch) Observe(ctx context.Context, simTime time.Time, audible int, discovered bool) {
	if b.span == nil {
		_, b.span = StartSpan(ctx, "Engine/TickBatch")
		b.simStart = simTime
		b.ticks, b.peak, b.found = 0, 0, 0
	}
	b.ticks++
	b.simLatest = simTime
	if audible > b.peak {
		b.peak = audible
	}
	if discovered {
		b.found++
		b.span.AddEvent("signal.discovered", trace.WithAttributes(
			attribute.String("sim.time", simTime.Format(time.RFC3339Nano)),
		))
	}
	if b.ticks >= b.size {
		b.Flush()
	}
}

// Flush ends the open span, if any, even when the batch is short.
func (b *TickBatch) Flush() {
	if b.span == nil {
		return
	}
	b.span.SetAttributes(
		attribute.Int("hunt.ticks", b.ticks),
		attribute.Int("hunt.audible_peak", b.peak),
		attribute.Int("hunt.discoveries", b.found),
		attribute.String("sim.start", b.simStart.Format(time.RFC3339Nano)),
		attribute.String("sim.end", b.simLatest.Format(time.RFC3339Nano)),
	)
	b.span.End()
	b.span = nil
}

// ShutdownWithTimeout invokes the provided shutdown function with a bounded
// timeout, swallowing errors in the shutdown path.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
