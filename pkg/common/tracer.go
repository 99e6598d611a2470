// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultZipkinEndpoint is the collector used when none is configured.
const DefaultZipkinEndpoint = "http://localhost:9411/api/v2/spans"

// TracerConfig configures NewTracerProvider.
type TracerConfig struct {
	ServiceName    string
	Environment    string
	ID             int64
	ZipkinEndpoint string
	// Disabled keeps spans local: nothing is sampled or exported.
	Disabled bool
}

// NewTracerProvider creates a tracer provider exporting batches to Zipkin.
func NewTracerProvider(cfg TracerConfig) (*sdktrace.TracerProvider, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("environment", cfg.Environment),
		attribute.Int64("ID", cfg.ID),
	)

	if cfg.Disabled {
		return sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.NeverSample()),
			sdktrace.WithResource(res),
		), nil
	}

	endpoint := cfg.ZipkinEndpoint
	if endpoint == "" {
		endpoint = DefaultZipkinEndpoint
	}

	exporter, err := zipkin.New(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create zipkin exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
