// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/internal/bootstrap"
	"github.com/AccelByte/extend-dynamic-rating/internal/config"
	"github.com/AccelByte/extend-dynamic-rating/internal/server"
	"github.com/AccelByte/extend-dynamic-rating/pkg/common"
	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg       *config.Config
	store     *bootstrap.Store
	manager   *prompt.Manager
	servers   []server.Server
	telemetry *server.Telemetry
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Preference store (Redis, SQLite, file or memory)
// 2. Rating policies (config/policies.yaml)
// 3. Prompt manager (one rating engine per user and policy)
// 4. Servers (gRPC, HTTP, metrics)
// 5. Telemetry (OpenTelemetry tracing)
//
// If you add new external dependencies, initialize them
// before the prompt manager and pass them in.
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Open the preference store
	// ============================================================
	store, err := bootstrap.InitStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s store: %w", cfg.Store, err)
	}
	app.store = store

	// ============================================================
	// Step 2: Load rating policies
	// ============================================================
	policies, err := bootstrap.InitPolicies(cfg.PolicyPath)
	if err != nil {
		app.closeStore()
		return nil, err
	}

	// ============================================================
	// Step 3: Build the prompt manager
	// ============================================================
	app.manager, err = prompt.NewManager(store.Preferences, policies, prompt.ManagerConfig{})
	if err != nil {
		app.closeStore()
		return nil, fmt.Errorf("failed to init prompt manager: %w", err)
	}

	// ============================================================
	// Step 4: Setup servers
	// ============================================================
	// DEVELOPER: Servers are started in this order and stopped in
	// reverse. Append new listeners (e.g. an admin API) here.
	// ============================================================
	app.servers = []server.Server{
		server.NewGRPCServer(cfg.GRPCPort, app.manager),
		server.NewHTTPServer(cfg.HTTPPort, app.manager, store.Health),
		server.NewMetricsServer(cfg.MetricsPort, "/metrics"),
	}
	for _, srv := range app.servers {
		if err := srv.Setup(); err != nil {
			app.closeStore()
			return nil, fmt.Errorf("failed to setup %s server: %w", srv.Name(), err)
		}
	}

	// ============================================================
	// Step 5: Setup telemetry
	// ============================================================
	app.telemetry, err = server.SetupTelemetry(common.TracerConfig{
		ServiceName:    cfg.ServiceName,
		Environment:    cfg.Environment,
		ZipkinEndpoint: cfg.ZipkinEndpoint,
		Disabled:       !cfg.OtelEnabled,
	})
	if err != nil {
		app.closeStore()
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// Manager returns the prompt manager.
func (a *App) Manager() *prompt.Manager {
	return a.manager
}

func (a *App) closeStore() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logrus.Errorf("%s store close error: %v", a.cfg.Store, err)
	}
}
