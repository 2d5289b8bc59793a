package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/daniel/expert-match/internal/jobs"
	"github.com/daniel/expert-match/internal/server/middleware"
	"github.com/daniel/expert-match/internal/server/ratelimit"
	"github.com/daniel/expert-match/internal/types"
)

// Matcher is the orchestration surface the API exposes.
type Matcher interface {
	MatchDoctors(ctx context.Context, caseID string, opts types.MatchOptions) ([]types.DoctorMatch, error)
	MatchFacilities(ctx context.Context, caseID string, opts types.RoutingOptions) ([]types.FacilityMatch, error)
	PrioritizeCase(ctx context.Context, caseID string) (types.PriorityScore, error)
}

// Config holds server configuration
type Config struct {
	Port        int
	JWTSecret   string
	AuthEnabled bool
	RateLimit   ratelimit.Config
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	matcher     Matcher
	registry    *jobs.Registry
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	validate    *validator.Validate
	logger      *slog.Logger
}

// New creates a new server instance
func New(matcher Matcher, registry *jobs.Registry, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = jobs.NewRegistry(0)
	}

	s := &Server{
		matcher:     matcher,
		registry:    registry,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		validate:    validator.New(),
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /cases/{id}/match", s.handleMatch)
	mux.HandleFunc("POST /cases/{id}/match/async", s.handleMatchAsync)
	mux.HandleFunc("POST /cases/{id}/route", s.handleRoute)
	mux.HandleFunc("GET /cases/{id}/priority", s.handlePriority)
	mux.HandleFunc("GET /jobs/{id}", s.handleJobStatus)
	mux.HandleFunc("GET /health", s.handleHealth)

	var handler http.Handler = mux
	if cfg.AuthEnabled {
		s.jwtService = NewJWTService(cfg.JWTSecret, 0)
		handler = middleware.AuthMiddleware(s.jwtService)(handler)
	}
	handler = s.rateLimitMiddleware(handler)
	handler = middleware.CorrelationMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the configured handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		s.logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// rateLimitMiddleware rejects clients that exceed their request budget.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			clientID = host
		}
		if !s.rateLimiter.Allow(clientID) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
