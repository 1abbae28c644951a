// Package server implements the meibo HTTP service.
//
// Routes:
//
//	GET  /healthz                      liveness and build information
//	GET  /v1/layouts                   metadata of every template in the layout directory
//	GET  /v1/layouts/{name}            JSON mirror of a registered layout
//	GET  /v1/layouts/{name}/preview    PNG preview of a registered layout
//	POST /v1/parse                     .lay (or JSON mirror) body → JSON mirror
//	POST /v1/render                    layout body, or multipart layout+records → PNG page
//
// Errors are returned as JSON objects carrying the error code of
// pkg/errors and the request ID.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/meibo/pkg/pipeline"
	"github.com/matzehuels/meibo/pkg/registry"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 32 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Config wires a Server.
type Config struct {
	Runner   *pipeline.Runner
	Registry *registry.Registry
	Scanner  *registry.Scanner

	// Defaults seed every request's pipeline options. They must not have
	// been validated yet, since requests override fields before validation.
	Defaults pipeline.Options

	MaxBodyBytes int64
	Logger       *log.Logger
}

// Server is the HTTP service.
type Server struct {
	runner   *pipeline.Runner
	registry *registry.Registry
	scanner  *registry.Scanner
	defaults pipeline.Options
	maxBody  int64
	logger   *log.Logger
	router   chi.Router
}

// New returns a server. A nil Runner or Scanner gets an uncached default; a
// nil Registry serves an empty layout directory.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		runner:   cfg.Runner,
		registry: cfg.Registry,
		scanner:  cfg.Scanner,
		defaults: cfg.Defaults,
		maxBody:  cfg.MaxBodyBytes,
		logger:   logger,
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, logger)
	}
	if s.scanner == nil {
		s.scanner = registry.NewScanner(nil, nil, logger)
	}
	if s.registry == nil {
		s.registry = registry.New("", logger)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(serverHeader)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/layouts", s.handleLayouts)
		r.Get("/layouts/{name}", s.handleLayout)
		r.Get("/layouts/{name}/preview", s.handlePreview)
		r.Post("/parse", s.handleParse)
		r.Post("/render", s.handleRender)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "templates", s.registry.Dir())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
