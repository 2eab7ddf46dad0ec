package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/debatehq/debate-service/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	voteCastCounter   metric.Int64Counter
	repositoryCounter metric.Int64Counter
	rateLimitCounter  metric.Int64Counter
	adminLoginCounter metric.Int64Counter
	adminMutationsCtr metric.Int64Counter
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

	meter := mp.Meter("debate-service")
	voteCastCounter, err := meter.Int64Counter("vote.cast.attempts")
	if err != nil {
		return nil, err
	}
	repositoryCounter, err := meter.Int64Counter("repository.operations")
	if err != nil {
		return nil, err
	}
	rateLimitCounter, err := meter.Int64Counter("ratelimit.decisions")
	if err != nil {
		return nil, err
	}
	adminLoginCounter, err := meter.Int64Counter("admin.login.attempts")
	if err != nil {
		return nil, err
	}
	adminMutationsCtr, err := meter.Int64Counter("admin.content.mutations")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		voteCastCounter:   voteCastCounter,
		repositoryCounter: repositoryCounter,
		rateLimitCounter:  rateLimitCounter,
		adminLoginCounter: adminLoginCounter,
		adminMutationsCtr: adminMutationsCtr,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func RecordVoteCast(ctx context.Context, level, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.voteCastCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("level", level),
		attribute.String("outcome", outcome),
	))
}

func RecordRepositoryOperation(ctx context.Context, table, operation, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.repositoryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table", table),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, decision, mode, keyType string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.rateLimitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
		attribute.String("mode", mode),
		attribute.String("key_type", keyType),
	))
}

func RecordAdminLogin(status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.adminLoginCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAdminMutation(entity, action string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.adminMutationsCtr.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
	))
}
