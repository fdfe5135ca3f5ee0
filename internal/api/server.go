package api

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/FlyingRobots-Pequi/pidcal/internal/audit"
	"github.com/FlyingRobots-Pequi/pidcal/internal/auth"
)

// Options wires the server's collaborators. Audit may be nil.
type Options struct {
	App       AppPort
	Charts    ChartPort
	Telemetry TelemetryPort
	Auth      *auth.Middleware
	Audit     *audit.Logger
	Logger    *log.Logger

	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// Server is the HTTP chart surface.
type Server struct {
	opts       Options
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates a server. A nil Auth middleware disables authentication.
func NewServer(opts Options) *Server {
	if opts.Auth == nil {
		opts.Auth = auth.NewMiddleware(nil)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Server{opts: opts, startTime: time.Now()}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// Start listens on addr and serves until Stop. The write timeout is left unset
// because the telemetry stream is long-lived.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop.
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       s.opts.IdleTimeout,
	}

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
