// Package server exposes an orchestrator over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sceneqa/internal/state"
	"github.com/leapstack-labs/sceneqa/internal/watch"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// Config holds configuration for the API server.
type Config struct {
	ScenePath  string
	Collection string // loaded on start when set
	Options    qa.Options
	Store      *state.Store // optional run history
	Port       int
	Watch      bool
	WatchPaths []string // extra paths that trigger a reload, e.g. the rules dir
	Logger     *slog.Logger

	// LoadRules rebuilds the registry on every reload when set, so edited
	// scripted rules are picked up together with the scene.
	LoadRules func() (*qa.Registry, error)
}

// Server serves one scene. Requests are handled one at a time because the
// scene adapter is not safe for concurrent use.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	reg     *prometheus.Registry
	metrics *metrics

	mu    sync.Mutex
	orch  *qa.Orchestrator
	graph *scene.Graph
	runID string
	dirty bool // fixes applied since the last load or save
}

// New loads the scene and prepares the orchestrator.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Options.Catalog == nil {
		cfg.Options.Catalog = qa.DefaultCatalog()
	}
	cfg.Options.Logger = cfg.Logger

	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger,
		reg:     reg,
		metrics: newMetrics(reg),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload reads the snapshot from disk and rebuilds the orchestrator, keeping
// the loaded collection. Callers hold s.mu or own s exclusively.
func (s *Server) reload() error {
	g, err := scene.LoadFile(s.cfg.ScenePath)
	if err != nil {
		return err
	}
	collection := s.cfg.Collection
	if s.orch != nil && s.orch.Collection() != "" {
		collection = s.orch.Collection()
	}

	opts := s.cfg.Options
	if s.cfg.LoadRules != nil {
		reg, err := s.cfg.LoadRules()
		if err != nil {
			return err
		}
		opts.Registry = reg
	}
	orch := qa.NewOrchestrator(g, &opts)
	if collection != "" {
		if err := orch.LoadCollection(collection); err != nil {
			return err
		}
	}
	s.graph = g
	s.orch = orch
	s.runID = ""
	s.dirty = false
	return nil
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.requestLogger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.serialize)
		r.Get("/collections", s.handleCollections)
		r.Post("/collections/{name}/load", s.handleLoad)
		r.Post("/run", s.handleRun)
		r.Get("/results", s.handleResults)
		r.Post("/rules/{id}/fix", s.handleFix)
		r.Post("/rules/{id}/fix-all", s.handleFixAll)
		r.Post("/reset", s.handleReset)
		r.Post("/undo", s.handleUndo)
		r.Post("/save", s.handleSave)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return r
}

// Serve starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port), "scene", s.cfg.ScenePath)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch {
		w, err := watch.New(append([]string{s.cfg.ScenePath}, s.cfg.WatchPaths...), watch.DefaultDebounce, s.logger)
		if err != nil {
			return err
		}
		eg.Go(func() error {
			return w.Run(egctx, s.onChange)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) onChange(_ context.Context, changed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		s.logger.Warn("discarding unsaved fixes", "scene", s.cfg.ScenePath, "files", changed)
	}
	if err := s.reload(); err != nil {
		s.logger.Error("failed to reload scene", "error", err, "files", changed)
		return
	}
	s.metrics.sceneReloads.Inc()
	s.logger.Info("scene reloaded", "files", changed)
}

func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
