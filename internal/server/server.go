package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/accounts"
	"github.com/ziadkadry99/krishi-mitra/internal/db"
	"github.com/ziadkadry99/krishi-mitra/internal/diary"
	"github.com/ziadkadry99/krishi-mitra/internal/flows"
	"github.com/ziadkadry99/krishi-mitra/internal/history"
	"github.com/ziadkadry99/krishi-mitra/internal/logging"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Deps are the services the server routes to. Accounts and History may be nil,
// in which case the auth, diary and run-log routes are not mounted.
type Deps struct {
	DB       *db.DB
	Flows    *flows.Service
	Accounts *accounts.Service
	History  *history.Store
	Logger   *zap.Logger
}

// Server is the HTTP front of the flow service.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The chat socket is long-lived and sits outside the request timeout.
	if s.deps.Flows != nil {
		r.Get("/ws/chat", s.handleChat)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(120 * time.Second))

		if s.deps.Flows != nil {
			r.Get("/api/flows", s.handleListFlows)
			r.Post("/api/flows/{name}", s.handleRunFlow)
		}
		if s.deps.History != nil {
			history.RegisterRoutes(r, s.deps.History)
		}
		if s.deps.Accounts != nil && s.deps.DB != nil {
			accounts.RegisterRoutes(r, s.deps.Accounts)
			r.Group(func(r chi.Router) {
				r.Use(accounts.RequireUser(s.deps.Accounts))
				diary.RegisterRoutes(r, diary.NewStore(s.deps.DB))
			})
		}
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      150 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("krishi server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
