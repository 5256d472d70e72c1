// Package server provides the HTTP server and routing for Cryptofolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/database"
	analysishandlers "github.com/erold/cryptofolio/internal/modules/analysis/handlers"
	historyhandlers "github.com/erold/cryptofolio/internal/modules/history/handlers"
	plannerhandlers "github.com/erold/cryptofolio/internal/modules/planner/handlers"
	portfoliohandlers "github.com/erold/cryptofolio/internal/modules/portfolio/handlers"
	"github.com/erold/cryptofolio/internal/reliability"
)

// Config holds server configuration.
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	DataDir   string
	Databases []*database.DB

	Portfolio *portfoliohandlers.Handler
	Analysis  *analysishandlers.Handler
	Planner   *plannerhandlers.Handler
	History   *historyhandlers.Handler

	// Backup is nil when cloud backups are not configured.
	Backup *reliability.BackupService
}

// Server is the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            Config
	systemHandlers *SystemHandlers
	startTime      time.Time
}

// New creates the HTTP server with all module routes mounted under /api.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg,
		startTime: time.Now(),
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.DataDir, cfg.Databases, cfg.Backup, s.startTime)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.cfg.Portfolio.RegisterRoutes(r)
		s.cfg.Analysis.RegisterRoutes(r)
		s.cfg.Planner.RegisterRoutes(r)
		s.cfg.History.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleSystemHealth)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			r.Post("/backup", s.systemHandlers.HandleTriggerBackup)
			r.Get("/backups", s.systemHandlers.HandleListBackups)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","uptime_seconds":%d}`, int64(time.Since(s.startTime).Seconds()))
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
