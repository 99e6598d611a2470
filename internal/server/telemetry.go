// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AccelByte/extend-dynamic-rating/pkg/common"
)

// Telemetry owns the process tracer provider.
type Telemetry struct {
	provider *sdktrace.TracerProvider
}

// SetupTelemetry installs the global tracer provider and propagators.
//
// ============================================================
// DEVELOPER: OpenTelemetry configuration
// ============================================================
// Spans are exported to Zipkin (ZIPKIN_ENDPOINT). With OTEL_ENABLED=false
// spans still carry trace IDs into the logs but are never exported.
// Incoming trace context is read as B3 or W3C traceparent, plus baggage.
// ============================================================
func SetupTelemetry(cfg common.TracerConfig) (*Telemetry, error) {
	provider, err := common.NewTracerProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		b3.New(),
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logrus.Infof("telemetry ready: (name: %s environment: %s id: %d exporting: %v)",
		cfg.ServiceName, cfg.Environment, cfg.ID, !cfg.Disabled)
	return &Telemetry{provider: provider}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	logrus.Info("flushing telemetry...")
	return t.provider.Shutdown(ctx)
}
