package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"videogen/internal/logging"
	"videogen/internal/metrics"
)

// Options configures the HTTP server.
type Options struct {
	Bind               string
	APIToken           string
	RateLimitPerSecond float64
	RateLimitBurst     int
	Metrics            *metrics.Metrics
	Logger             *slog.Logger
}

// Server exposes the generation jobs over HTTP.
type Server struct {
	bind    string
	jobs    Jobs
	metrics *metrics.Metrics
	logger  *slog.Logger
	engine  *gin.Engine
	server  *http.Server
}

// New builds the router and HTTP server.
func New(jobs Jobs, opts Options) (*Server, error) {
	if jobs == nil {
		return nil, errors.New("api: jobs required")
	}
	registerValidations()
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		bind:    strings.TrimSpace(opts.Bind),
		jobs:    jobs,
		metrics: opts.Metrics,
		logger:  logging.NewComponentLogger(opts.Logger, "api"),
	}

	var limiter *rate.Limiter
	if opts.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitPerSecond), opts.RateLimitBurst)
	}

	engine := gin.New()
	engine.Use(requestID(), s.accessLog(), s.recovery())
	engine.GET("/health", s.handleHealth)
	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	jobsGroup := engine.Group("", s.bearerAuth(strings.TrimSpace(opts.APIToken)), s.rateLimit(limiter))
	jobsGroup.POST("/generate-preview-audio", s.handlePreview)
	jobsGroup.POST("/generate-full-video", s.handleVideo)
	s.engine = engine

	// Renders can take minutes, so there is no write timeout.
	s.server = &http.Server{
		Addr:              s.bind,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve listens on the configured address until Shutdown is called.
func (s *Server) Serve() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.ServeListener(listener)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(listener net.Listener) error {
	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "api_listening"),
	)
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight jobs until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
