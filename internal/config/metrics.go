package config

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	configMetricsOnce sync.Once
	configLoadCounter metric.Int64Counter
)

// recordConfigLoad counts one Load attempt. Failures carry the error class
// and the environment variable at fault so an operator can tell a typo in
// VOTE_SUBNET_WINDOW from a missing IDENTITY_SECRET without reading logs.
func recordConfigLoad(ctx context.Context, cfg *Config, err error) {
	configMetricsOnce.Do(func() {
		counter, meterErr := otel.Meter("debate-service").Int64Counter("config.load.results")
		if meterErr == nil {
			configLoadCounter = counter
		}
	})
	if configLoadCounter == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	class, envVar := classifyConfigError(err)
	attrs := []attribute.KeyValue{
		attribute.String("environment", normalizeEnvironment(cfg.Environment)),
		attribute.String("db_driver", cfg.DBDriver),
		attribute.String("outcome", outcome),
		attribute.String("error_class", class),
	}
	if envVar != "" {
		attrs = append(attrs, attribute.String("env_var", envVar))
	}
	configLoadCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// classifyConfigError maps a Load error onto a metric class plus the
// offending environment variable when the error carries one.
func classifyConfigError(err error) (class, envVar string) {
	if err == nil {
		return "none", ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "validation", ve.Var
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return "parse", pe.Var
	}
	return "load", ""
}

func normalizeEnvironment(env string) string {
	v := strings.TrimSpace(strings.ToLower(env))
	if v == "" {
		return "unknown"
	}
	return v
}
