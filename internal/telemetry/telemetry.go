package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"student-registry/internal/config"
	"student-registry/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func InitMeterProvider(ctx context.Context, cfg config.TelemetryConfig, serviceName, serviceVersion string, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	endpoint := cfg.OTLPEndpoint
	if endpoint == "" {
		endpoint = "otel-collector.infra.svc.cluster.local:4317"
	}

	logger.Info("initializing OTel metrics", "endpoint", endpoint)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(10*time.Second))),
	)

	otel.SetMeterProvider(meterProvider)
	logger.Info("OTel metrics initialized successfully")

	return meterProvider, nil
}

type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *metrics.Metrics

	meter metric.Meter
}

// Init sets up the metric pipeline. With telemetry disabled the collectors
// record into a no-op meter.
func Init(ctx context.Context, cfg config.TelemetryConfig, serviceName, serviceVersion, env string, logger *slog.Logger) (*Telemetry, error) {
	if !cfg.Enabled {
		logger.Info("telemetry disabled, using no-op meter")
		meter := noop.NewMeterProvider().Meter(serviceName)
		m, err := metrics.New(meter, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		return &Telemetry{Metrics: m, meter: meter}, nil
	}

	meterProvider, err := InitMeterProvider(ctx, cfg, serviceName, serviceVersion, logger)
	if err != nil {
		return nil, err
	}

	meter := meterProvider.Meter(serviceName)
	m, err := metrics.New(meter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := m.Health.RegisterServiceInfo(meter, serviceName, serviceVersion, env); err != nil {
		logger.Warn("failed to register service info", "error", err)
	}
	if _, err := metrics.RegisterRuntimeMetrics(meter); err != nil {
		logger.Warn("failed to register runtime metrics", "error", err)
	}

	return &Telemetry{
		MeterProvider: meterProvider,
		Metrics:       m,
		meter:         meter,
	}, nil
}

// Meter returns the meter the collectors were built on.
func (t *Telemetry) Meter() metric.Meter {
	return t.meter
}

func (t *Telemetry) Shutdown(ctx context.Context, logger *slog.Logger) error {
	if t.MeterProvider == nil {
		return nil
	}
	logger.Info("shutting down OTel meter provider")
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
