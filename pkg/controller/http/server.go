package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/infra/metrics"
)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	webhookSecret string
	jobRepo       interfaces.JobRepository
	metrics       *metrics.Metrics
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithJobRepository enables the /jobs endpoints
func WithJobRepository(repo interfaces.JobRepository) Option {
	return func(c *config) {
		c.jobRepo = repo
	}
}

// WithMetrics enables the /metrics endpoint
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	processor EventProcessor,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)

	webhookHandler := NewWebhookHandler(cfg.webhookSecret, processor)
	router.Post("/hooks/github", webhookHandler.Handle)

	if cfg.jobRepo != nil {
		jobs := NewJobHandler(cfg.jobRepo)
		router.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobs.List)
			r.Get("/{id}", jobs.Get)
		})
	}

	if cfg.metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.metrics.Handler())
	}

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
