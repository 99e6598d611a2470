// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/pkg/metrics"
)

// MetricsServer exposes Prometheus metrics of the rating service.
type MetricsServer struct {
	server   *http.Server
	registry *prometheus.Registry
	port     int
	endpoint string
}

// NewMetricsServer creates a metrics server serving endpoint on port.
func NewMetricsServer(port int, endpoint string) *MetricsServer {
	return &MetricsServer{
		port:     port,
		endpoint: endpoint,
	}
}

func (m *MetricsServer) Name() string { return "metrics" }

// Setup builds a fresh registry with the runtime collectors and the rating counters.
//
// ============================================================
// DEVELOPER: Custom Prometheus metrics
// ============================================================
// Rating counters live in pkg/metrics. Add new collectors to
// metrics.Collectors() and they are registered here.
// ============================================================
func (m *MetricsServer) Setup() error {
	m.registry = prometheus.NewRegistry()
	if err := m.registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := m.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return err
	}
	if err := metrics.Register(m.registry); err != nil {
		return fmt.Errorf("failed to register rating metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(m.endpoint, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: promLogger{},
	}))

	m.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", m.port),
		Handler: mux,
	}
	return nil
}

// Handler returns the metrics mux.
func (m *MetricsServer) Handler() http.Handler {
	return m.server.Handler
}

func (m *MetricsServer) Start(context.Context) error {
	serveHTTP(m.Name(), m.server)
	return nil
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return shutdownHTTP(ctx, m.Name(), m.server)
}

// promLogger routes promhttp errors to logrus.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	logrus.Error(v...)
}
