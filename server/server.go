// Package server exposes the engine over a small JSON REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/etnz/fundbook"
)

// Config holds the server configuration.
type Config struct {
	Addr    string // listen address, e.g. ":8080"
	Service *fundbook.Service
	Log     zerolog.Logger
}

// Server serves the REST API over a fundbook service.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	service *fundbook.Service
	log     zerolog.Logger
}

// New builds the server with its middleware chain and routes.
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: cfg.Service,
		log:     cfg.Log.With().Str("component", "server").Logger(),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handlePortfolioSummary)

		r.Route("/funds", func(r chi.Router) {
			r.Get("/", s.handleListFunds)
			r.Post("/", s.handleCreateFund)

			r.Route("/{fundID}", func(r chi.Router) {
				r.Get("/", s.handleGetFund)
				r.Delete("/", s.handleDeleteFund)
				r.Get("/summary", s.handleFundSummary)

				r.Post("/deposit", s.handleDeposit)
				r.Post("/withdraw", s.handleWithdraw)
				r.Get("/events", s.handleListEvents)

				r.Get("/transactions", s.handleListTransactions)
				r.Post("/transactions", s.handleCreateTransaction)
				r.Get("/transactions/export", s.handleExportTransactions)

				r.Get("/assets", s.handleListAssets)
				r.Post("/assets", s.handleTrackAsset)
				r.Delete("/assets/{symbol}", s.handleUntrackAsset)
			})
		})

		r.Put("/events/{eventID}", s.handleUpdateEvent)
		r.Delete("/events/{eventID}", s.handleDeleteEvent)

		r.Put("/transactions/{txID}", s.handleUpdateTransaction)
		r.Delete("/transactions/{txID}", s.handleDeleteTransaction)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

type ctxKey int

const requestIDKey ctxKey = 0

// requestID tags every request with a fresh uuid, available to handlers
// and the request log.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func reqID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", reqID(r.Context())).
			Msg("http request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
