// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Server is a listener the application starts and stops as a unit.
type Server interface {
	Name() string
	Setup() error
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

var (
	_ Server = (*GRPCServer)(nil)
	_ Server = (*HTTPServer)(nil)
	_ Server = (*MetricsServer)(nil)
)

// serveHTTP runs srv in the background. A listen failure is fatal.
func serveHTTP(name string, srv *http.Server) {
	go func() {
		logrus.Infof("%s server listening on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("%s server failed: %v", name, err)
		}
	}()
}

func shutdownHTTP(ctx context.Context, name string, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	logrus.Infof("shutting down %s server...", name)
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Infof("%s server stopped", name)
	return nil
}
