// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/AccelByte/extend-dynamic-rating/pkg/handler"
	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
)

// HTTPServer manages the REST API server.
type HTTPServer struct {
	server  *http.Server
	port    int
	manager *prompt.Manager
	health  preferences.HealthChecker
}

// NewHTTPServer creates a new REST API server instance. health may be nil.
func NewHTTPServer(port int, manager *prompt.Manager, health preferences.HealthChecker) *HTTPServer {
	return &HTTPServer{
		port:    port,
		manager: manager,
		health:  health,
	}
}

// Setup builds the router.
func (s *HTTPServer) Setup() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           handler.NewHTTP(s.manager, s.health).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Handler returns the configured router.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Name() string { return "HTTP API" }

func (s *HTTPServer) Start(context.Context) error {
	serveHTTP(s.Name(), s.server)
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return shutdownHTTP(ctx, s.Name(), s.server)
}
