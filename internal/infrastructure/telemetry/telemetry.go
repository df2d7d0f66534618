package telemetry

import (
	"context"
	"log/slog"

	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

// Telemetry holds all OpenTelemetry components
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Logger         *slog.Logger
	// Registry backs the /metrics endpoint.
	Registry *prometheus.Registry

	conn *grpc.ClientConn
}

// NewTelemetry initializes all OpenTelemetry components. With export disabled
// it falls back to NewNoOpTelemetry.
func NewTelemetry(ctx context.Context, cfg *config.OTLPConfig, logCfg *config.LogConfig) (*Telemetry, error) {
	if !cfg.Enabled {
		return NewNoOpTelemetry(cfg, logCfg)
	}

	logger := initLogger(cfg, logCfg)

	logger.Info("Initializing OpenTelemetry",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("service_name", cfg.ServiceName),
	)

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	conn, err := dialCollector(cfg)
	if err != nil {
		return nil, err
	}

	tp, err := initTracerProvider(ctx, conn, res)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to initialize tracer provider")
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("Tracer provider initialized successfully")

	registry := newRegistry()
	mp, err := initMeterProvider(ctx, conn, res, registry)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to initialize meter provider")
	}

	otel.SetMeterProvider(mp)
	logger.Info("Meter provider initialized successfully (OTLP + Prometheus exporters)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		Registry:       registry,
		conn:           conn,
	}, nil
}

// NewNoOpTelemetry creates a telemetry instance that exports nothing over
// OTLP. Spans are still created for log correlation and metrics are still
// served through the Prometheus registry.
func NewNoOpTelemetry(cfg *config.OTLPConfig, logCfg *config.LogConfig) (*Telemetry, error) {
	logger := initLogger(cfg, logCfg)

	res, err := newResource(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	registry := newRegistry()
	mp, err := initMeterProvider(context.Background(), nil, res, registry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize meter provider")
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Info("Telemetry initialized in no-op mode (export disabled)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		Registry:       registry,
	}, nil
}

// Shutdown gracefully shuts down all telemetry components
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.Logger.Info("Shutting down OpenTelemetry")

	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown tracer provider", slog.String("error", err.Error()))
		return err
	}

	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown meter provider", slog.String("error", err.Error()))
		return err
	}

	if t.conn != nil {
		if err := t.conn.Close(); err != nil {
			return errors.Wrap(err, "failed to close collector connection")
		}
	}

	t.Logger.Info("OpenTelemetry shutdown successfully")
	return nil
}

func newResource(ctx context.Context, cfg *config.OTLPConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resource")
	}
	return res, nil
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}
