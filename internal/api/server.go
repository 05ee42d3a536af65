package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/metrics"
)

// Server serves the Preflight HTTP API.
type Server struct {
	router  *chi.Mux
	handler *Handler
	http    *http.Server
}

// NewServer wires the router. /health, /ready and /metrics sit outside the
// per-client rate limit so health checks and scrapes keep working under load.
func NewServer(cfg domain.ServerConfig, deps Dependencies) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		handler: NewHandler(deps),
	}
	s.routes(cfg)

	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg domain.ServerConfig) {
	r := s.router
	r.Use(
		CORSMiddleware,
		RecoverMiddleware,
		TracingMiddleware,
		LoggingMiddleware,
	)
	// Forwarding headers pick the rate limit bucket, so they are honored
	// only when a trusted proxy sets them.
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Compress(5), metrics.Middleware)

	r.Get("/health", s.handler.Health)
	r.Get("/ready", s.handler.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(NewRateLimiter(cfg.RateLimitRPS).Middleware)
		}
		r.Post("/analyze", s.handler.Analyze)
		r.Get("/intel/{address}", s.handler.LookupIntel)
	})
}

// Start listens on the configured address and blocks until Shutdown.
// It returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight analyses.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Router exposes the mux for httptest.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) Handler() *Handler {
	return s.handler
}
