package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vvka-141/conncache/internal/cache"
	"github.com/vvka-141/conncache/internal/logging"
	"github.com/vvka-141/conncache/pkg/conncache"
)

const (
	// DefaultPingTimeout bounds the ping issued by /healthz.
	DefaultPingTimeout = 2 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// ConnectionProvider is the part of cache.Cache the server depends on.
type ConnectionProvider interface {
	EnsureConnection(ctx context.Context, uri string) (conncache.Connection, error)
	State() cache.State
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Driver string `json:"driver,omitempty"`
	Target string `json:"target,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server serves health and metrics endpoints for one connection.
type Server struct {
	provider    ConnectionProvider
	uri         string
	gatherer    prometheus.Gatherer
	logger      conncache.Logger
	pingTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(l conncache.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithPingTimeout bounds the ping issued by /healthz.
func WithPingTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.pingTimeout = d
	}
}

// New creates a Server for uri backed by provider.
func New(provider ConnectionProvider, uri string, opts ...Option) *Server {
	s := &Server{
		provider:    provider,
		uri:         uri,
		gatherer:    prometheus.DefaultGatherer,
		logger:      logging.NewNullLogger(),
		pingTimeout: DefaultPingTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	code := http.StatusOK

	conn, err := s.provider.EnsureConnection(r.Context(), s.uri)
	if err == nil {
		resp.Driver = conn.Driver()
		resp.Target = conn.Target()

		ctx, cancel := context.WithTimeout(r.Context(), s.pingTimeout)
		err = conn.Ping(ctx)
		cancel()
	}

	if err != nil {
		s.logger.Error("Health check failed: %v", err)
		resp.Status = "unavailable"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
	}
	resp.State = s.provider.State().String()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", ln.Addr())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()

	s.logger.Verbose("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
