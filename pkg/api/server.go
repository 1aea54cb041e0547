package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/pkg/api/auth"
)

// Server is the realm API HTTP server. It supports graceful shutdown.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server in a stopped state. Defaults
// are applied to config so a zero Config works.
func NewServer(config Config, deps Dependencies) (*Server, error) {
	config.ApplyDefaults()

	if config.Auth.Enabled {
		tokens, err := auth.NewTokenService(config.Auth.Secret, config.Auth.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
		deps.Tokens = tokens
	}

	return &Server{
		server: &http.Server{
			Addr:         config.Addr(),
			Handler:      NewRouter(deps, config.RequestTimeout),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		config: config,
	}, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
// It returns nil on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", logger.KeyAddress, s.server.Addr,
			"auth", s.config.Auth.Enabled)

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// ctx is already cancelled; shut down on a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.Err(err))
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.config.Port
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
