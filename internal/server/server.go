// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/auth"
	"github.com/vyrodovalexey/material-ledger/internal/config"
	"github.com/vyrodovalexey/material-ledger/internal/handler"
	"github.com/vyrodovalexey/material-ledger/internal/metrics"
	"github.com/vyrodovalexey/material-ledger/internal/middleware"
	"github.com/vyrodovalexey/material-ledger/internal/store"
)

// Ledger is what the server needs from the material ledger: the CRUD
// surface for REST and a change stream for WebSocket clients.
type Ledger interface {
	store.Store
	store.Watcher
}

// Server represents the HTTP server.
type Server struct {
	httpServer    *http.Server
	router        *mux.Router
	handler       http.Handler
	config        *config.Config
	logger        *zap.Logger
	authenticator auth.Authenticator
	registry      *prometheus.Registry
	wsHandler     *handler.WebSocketHandler
}

// New creates a new Server instance. A nil authenticator disables
// authentication.
func New(cfg *config.Config, logger *zap.Logger, ledger Ledger, authenticator auth.Authenticator) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		config:        cfg,
		logger:        logger,
		authenticator: authenticator,
		registry:      prometheus.NewRegistry(),
	}

	s.setupMiddleware()
	s.setupRoutes(ledger)
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	cors := middleware.CORSOptions{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			auth.APIKeyHeader,
			middleware.RequestIDHeader,
		},
	}

	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
	}
	if s.config.MetricsEnabled {
		chain = append(chain, middleware.Metrics())
	}
	chain = append(chain, middleware.Logging(s.logger))
	if s.authenticator != nil {
		chain = append(chain, middleware.Auth(s.authenticator, s.logger))
	}

	for _, m := range chain {
		s.router.Use(mux.MiddlewareFunc(m))
	}

	// mux only runs Use middleware on matched routes, so CORS wraps the
	// router to answer preflight requests for any path.
	s.handler = middleware.CORS(cors)(s.router)
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(ledger Ledger) {
	restHandler := handler.NewRESTHandler(ledger, handler.NewValidator(s.config.StrictValidation), s.logger)
	restHandler.RegisterRoutes(s.router)

	s.wsHandler = handler.NewWebSocketHandler(ledger, s.logger)
	s.wsHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.registry.MustRegister(metrics.NewLedgerCollector(ledger))
		gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, s.registry}
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.Bool("auth_enabled", s.authenticator != nil),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// WebSocket connections are hijacked, so http.Server.Shutdown does not
	// close them.
	s.wsHandler.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the complete HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}
