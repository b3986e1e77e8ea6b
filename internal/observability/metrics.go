package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"papertrail-server/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	authSignUpCounter  metric.Int64Counter
	authSignInCounter  metric.Int64Counter
	authRefreshCounter metric.Int64Counter
	authSignOutCounter metric.Int64Counter
	reuseCounter       metric.Int64Counter
	tokenCheckCounter  metric.Int64Counter
	repoOpCounter      metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("papertrail")
	signUpCounter, err := meter.Int64Counter("auth.signup.attempts")
	if err != nil {
		return nil, err
	}
	signInCounter, err := meter.Int64Counter("auth.signin.attempts")
	if err != nil {
		return nil, err
	}
	refreshCounter, err := meter.Int64Counter("auth.refresh.attempts")
	if err != nil {
		return nil, err
	}
	signOutCounter, err := meter.Int64Counter("auth.signout.attempts")
	if err != nil {
		return nil, err
	}
	reuseCounter, err := meter.Int64Counter("auth.refresh.reuse_detected")
	if err != nil {
		return nil, err
	}
	tokenCheckCounter, err := meter.Int64Counter("auth.access_token.validations")
	if err != nil {
		return nil, err
	}
	repoOpCounter, err := meter.Int64Counter("repository.operations")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authSignUpCounter:  signUpCounter,
		authSignInCounter:  signInCounter,
		authRefreshCounter: refreshCounter,
		authSignOutCounter: signOutCounter,
		reuseCounter:       reuseCounter,
		tokenCheckCounter:  tokenCheckCounter,
		repoOpCounter:      repoOpCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func RecordAuthSignUp(status string) {
	record(func(m *AppMetrics) metric.Int64Counter { return m.authSignUpCounter },
		attribute.String("status", status))
}

func RecordAuthSignIn(status string) {
	record(func(m *AppMetrics) metric.Int64Counter { return m.authSignInCounter },
		attribute.String("status", status))
}

func RecordAuthRefresh(status string) {
	record(func(m *AppMetrics) metric.Int64Counter { return m.authRefreshCounter },
		attribute.String("status", status))
}

func RecordAuthSignOut(status string) {
	record(func(m *AppMetrics) metric.Int64Counter { return m.authSignOutCounter },
		attribute.String("status", status))
}

func RecordReuseDetected() {
	record(func(m *AppMetrics) metric.Int64Counter { return m.reuseCounter })
}

func RecordAccessTokenValidation(ctx context.Context, outcome string) {
	record(func(m *AppMetrics) metric.Int64Counter { return m.tokenCheckCounter },
		attribute.String("outcome", outcome))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	record(func(m *AppMetrics) metric.Int64Counter { return m.repoOpCounter },
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
}

func record(pick func(*AppMetrics) metric.Int64Counter, attrs ...attribute.KeyValue) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	counter := pick(m)
	if counter == nil {
		return
	}
	counter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
