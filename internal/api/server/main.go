package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bz888/gramfix/internal/api/server/client"
	"github.com/bz888/gramfix/internal/api/server/handlers"
	"github.com/bz888/gramfix/internal/logger"
)

const shutdownTimeout = 5 * time.Second

var LocalLogger = logger.NewLogger("Server")

type Server struct {
	config Config
	http   *http.Server
}

func New(config Config) (*Server, error) {
	completer, err := client.New(config.clientConfig())
	if err != nil {
		return nil, err
	}
	return NewWithCompleter(config, completer), nil
}

// NewWithCompleter builds a server around an already constructed provider client.
func NewWithCompleter(config Config, completer client.Completer) *Server {
	handler := handlers.NewHandler(completer, config.MaxBodyBytes)
	return &Server{
		config: config,
		http: &http.Server{
			Addr:              config.Addr(),
			Handler:           NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("error starting server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	provider := s.config.Provider
	if provider == "" {
		provider = client.ProviderGemini
	}
	LocalLogger.WithField("provider", provider).Info("Server started on http://" + ln.Addr().String() + "/")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	LocalLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
