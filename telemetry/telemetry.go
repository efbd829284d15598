// Package telemetry sets up OpenTelemetry trace and log export. Everything is
// off unless OTEL_ENABLED is true.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amp-labs/keyed-array/envutil"
	"github.com/amp-labs/keyed-array/logger"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
	collectorEndpoint     = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
)

var (
	providerMut    sync.Mutex              //nolint:gochecknoglobals
	tracerProvider *sdktrace.TracerProvider //nolint:gochecknoglobals
	loggerProvider *sdklog.LoggerProvider   //nolint:gochecknoglobals
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	LogsEndpoint   string
	Enabled        bool
	Timeout        time.Duration
}

// LoadConfigFromEnv reads OTEL_ENABLED, OTEL_SERVICE_NAME,
// OTEL_SERVICE_VERSION, OTEL_EXPORTER_OTLP_TRACES_ENDPOINT,
// OTEL_EXPORTER_OTLP_LOGS_ENDPOINT and OTEL_EXPORTER_OTLP_TRACES_TIMEOUT.
// The service name defaults to the logging subsystem.
func LoadConfigFromEnv(runningEnv string) (*Config, error) {
	enabled := envutil.Bool("OTEL_ENABLED", envutil.Default(false)).ValueOrElse(false)

	defaultEndpoint := ""
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		defaultEndpoint = collectorEndpoint
	}

	svcName, err := envutil.String("OTEL_SERVICE_NAME",
		envutil.Default(logger.GetSubsystem(context.Background()))).Value()
	if err != nil {
		return nil, err
	}

	svcVersion, err := envutil.String("OTEL_SERVICE_VERSION", envutil.Default(defaultServiceVersion)).Value()
	if err != nil {
		return nil, err
	}

	endpoint, err := envutil.String("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", envutil.Default(defaultEndpoint)).Value()
	if err != nil {
		return nil, err
	}

	logsEndpoint, err := envutil.String("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", envutil.Default("")).Value()
	if err != nil {
		return nil, err
	}

	timeout, err := envutil.Duration("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT", envutil.Default(defaultTimeout)).Value()
	if err != nil {
		return nil, err
	}

	return &Config{
		ServiceName:    svcName,
		ServiceVersion: svcVersion,
		Environment:    runningEnv,
		Endpoint:       endpoint,
		LogsEndpoint:   logsEndpoint,
		Enabled:        enabled,
		Timeout:        timeout,
	}, nil
}

// Initialize installs the global tracer provider and, when LogsEndpoint is
// set, a logger provider for LogHandler. It does nothing when tracing is
// disabled or has no endpoint.
func Initialize(ctx context.Context, config *Config) error {
	log := logger.Get(ctx)

	if config == nil || !config.Enabled {
		log.Debug("OpenTelemetry tracing is disabled")

		return nil
	}

	if config.Endpoint == "" {
		log.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	var logs *sdklog.LoggerProvider

	if config.LogsEndpoint != "" {
		logExporter, err := otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(config.LogsEndpoint),
			otlploghttp.WithTimeout(config.Timeout),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}

		logs = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
	}

	traces := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	providerMut.Lock()
	tracerProvider = traces
	loggerProvider = logs
	providerMut.Unlock()

	otel.SetTracerProvider(traces)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
		"logsEndpoint", config.LogsEndpoint,
	)

	return nil
}

// Tracer returns a tracer from the global provider. Before Initialize, or
// when tracing is disabled, its spans are not recorded.
func Tracer(name string) trace.Tracer { //nolint:ireturn
	return otel.Tracer(name)
}

// LogHandler returns an slog handler that exports records through the
// OpenTelemetry log bridge, or nil when log export is not configured.
func LogHandler(name string) slog.Handler { //nolint:ireturn
	providerMut.Lock()
	defer providerMut.Unlock()

	if loggerProvider == nil {
		return nil
	}

	return otelslog.NewHandler(name, otelslog.WithLoggerProvider(loggerProvider))
}

// Shutdown flushes and stops the providers installed by Initialize.
func Shutdown(ctx context.Context) error {
	providerMut.Lock()
	traces, logs := tracerProvider, loggerProvider
	tracerProvider, loggerProvider = nil, nil
	providerMut.Unlock()

	var errs []error

	if traces != nil {
		logger.Get(ctx).Debug("shutting down OpenTelemetry tracer provider")

		errs = append(errs, traces.Shutdown(ctx))
	}

	if logs != nil {
		errs = append(errs, logs.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
