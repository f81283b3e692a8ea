// Package httpapi exposes the advisor over a small JSON API: position
// ingest, pantry edits, the grocery list, stores and reminder history.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/config"
	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/services/pantry"
)

const shutdownTimeout = 5 * time.Second

// PositionSink accepts posted device positions.
type PositionSink interface {
	Publish(coord models.Coordinate) error
	Last() (models.Coordinate, bool)
}

// Pantry is the pantry service surface the API uses.
type Pantry interface {
	List() []models.PantryItem
	Set(ctx context.Context, input pantry.SetItemInput) (models.PantryItem, error)
	Remove(ctx context.Context, id string) error
	GroceryList() pantry.GroceryList
}

// Stores is the store registry surface the API uses.
type Stores interface {
	Current() []models.StoreLocation
}

// Nearest ranks registered stores by distance.
type Nearest interface {
	Nearest(coord models.Coordinate) ([]models.StoreDistance, error)
}

// Reminders lists reminder history.
type Reminders interface {
	ListRecent(ctx context.Context, page models.Pagination) ([]models.ReminderEvent, error)
}

// HealthChecker reports storage health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the components behind the API.
type Deps struct {
	Positions PositionSink
	Pantry    Pantry
	Stores    Stores
	Nearest   Nearest
	Reminders Reminders
	Health    HealthChecker
}

// Server serves the API.
type Server struct {
	cfg    config.HTTPConfig
	deps   Deps
	logger *zap.Logger
	router *mux.Router
}

// New builds the router for deps.
func New(cfg config.HTTPConfig, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("http"),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/positions", s.postPosition).Methods(http.MethodPost)
	api.HandleFunc("/pantry", s.listPantry).Methods(http.MethodGet)
	api.HandleFunc("/pantry/{id}", s.putPantryItem).Methods(http.MethodPut)
	api.HandleFunc("/pantry/{id}", s.deletePantryItem).Methods(http.MethodDelete)
	api.HandleFunc("/grocery-list", s.groceryList).Methods(http.MethodGet)
	api.HandleFunc("/stores", s.listStores).Methods(http.MethodGet)
	api.HandleFunc("/stores/nearest", s.nearestStores).Methods(http.MethodGet)
	api.HandleFunc("/reminders", s.listReminders).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http: %w", err)
	}
	<-errCh
	s.logger.Info("http api stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
