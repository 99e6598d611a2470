// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/internal/server"
)

// Run starts every server and blocks until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	for i, srv := range a.servers {
		if err := srv.Start(ctx); err != nil {
			a.stopServers(context.Background(), a.servers[:i])
			return fmt.Errorf("failed to start %s server: %w", srv.Name(), err)
		}
	}
	logrus.Info("application started successfully")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logrus.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops the application.
//
// ============================================================
// DEVELOPER: Shutdown order
// ============================================================
//  1. Servers, in reverse start order, so no request reaches a
//     closed store
//  2. The preference store
//  3. Telemetry, last, so shutdown spans are flushed
//
// Errors are logged and the sequence continues.
// ============================================================
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	a.stopServers(ctx, a.servers)
	a.closeStore()

	if err := a.telemetry.Shutdown(ctx); err != nil {
		logrus.Errorf("telemetry shutdown error: %v", err)
	}

	logrus.Info("application shutdown complete")
	return nil
}

func (a *App) stopServers(ctx context.Context, servers []server.Server) {
	for i := len(servers) - 1; i >= 0; i-- {
		if err := servers[i].Shutdown(ctx); err != nil {
			logrus.Errorf("%s server shutdown error: %v", servers[i].Name(), err)
		}
	}
}
