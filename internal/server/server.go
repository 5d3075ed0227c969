// Package server exposes table selection and schema generation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/dbschema/internal/catalog"
	"github.com/leapstack-labs/dbschema/internal/engine"
	"github.com/leapstack-labs/dbschema/pkg/core"
	"golang.org/x/sync/errgroup"
)

// Service is what the API serves. *engine.Engine implements it.
type Service interface {
	Generate(ctx context.Context, req engine.Request) (*engine.Result, error)
	Candidates(ctx context.Context, module string, patterns ...string) ([]string, error)
	Relations(ctx context.Context, table string) (*engine.Relations, error)
	Describe(ctx context.Context, table string) (*core.Table, error)
	Modules(ctx context.Context) ([]string, error)
	Reload() error
}

var _ Service = (*engine.Engine)(nil)

// Config holds configuration for the API server.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	// WatchDir, when set, reloads the service on catalog changes below it.
	WatchDir string
	Logger   *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	svc      Service
	cfg      Config
	notifier *notifier
	logger   *slog.Logger
}

// New creates a server for svc.
func New(svc Service, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	return &Server{svc: svc, cfg: cfg, notifier: newNotifier(), logger: logger}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	h := &handlers{svc: s.svc, notifier: s.notifier, logger: s.logger}
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/modules", h.modules)
		r.Get("/tables", h.tables)
		r.Get("/tables/{name}", h.describe)
		r.Get("/tables/{name}/relations", h.relations)
		r.Post("/schema", h.schema)
		r.Get("/events", h.events)
	})
	return r
}

// Serve listens on the configured port and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting API server", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.WatchDir != "" {
		eg.Go(func() error {
			return catalog.Watch(egctx, s.cfg.WatchDir, catalog.DefaultDebounce, s.reload, s.logger)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// reload refreshes the service after a catalog change and tells subscribers.
func (s *Server) reload() {
	ev := Event{Kind: EventReloaded, At: time.Now().UTC()}
	if err := s.svc.Reload(); err != nil {
		s.logger.Error("reload failed", "error", err)
		ev.Kind = EventReloadFailed
		ev.Error = err.Error()
	} else {
		s.logger.Info("catalog reloaded")
	}
	s.notifier.publish(ev)
}

// requestLogger logs one line per request with slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
