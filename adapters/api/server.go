package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"spreaddiag/adapters/postgres"
	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal"
	"spreaddiag/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// MaxBodyBytes caps a request body; ten years of hourly rows fit comfortably
const MaxBodyBytes = 64 << 20

// ResultStore persists result tables. *postgres.SummaryRepository satisfies it.
type ResultStore interface {
	SaveYearly(ctx context.Context, source string, table *domainDiag.YearlySummaryTable) (*postgres.Run, error)
	GetYearly(ctx context.Context, runID uuid.UUID) (*domainDiag.YearlySummaryTable, error)
	SaveSuite(ctx context.Context, source string, opts adapterDiag.SuiteOptions, outcomes []adapterDiag.Outcome) (*postgres.Run, error)
	GetSuite(ctx context.Context, runID uuid.UUID) ([]postgres.SuiteRecord, error)
	ListRuns(ctx context.Context, limit int) ([]postgres.Run, error)
}

// Config holds the defaults applied when a request leaves a parameter out
type Config struct {
	Suite   adapterDiag.SuiteOptions
	Workers int
}

// Server is the HTTP surface over the diagnostics
type Server struct {
	router *chi.Mux
	engine *adapterDiag.Engine
	config Config
	store  ResultStore
	logger *internal.Logger
}

// NewServer wires the routes. A nil store disables persistence and the run endpoints.
func NewServer(config Config, store ResultStore, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NopLogger()
	}
	s := &Server{
		router: chi.NewRouter(),
		engine: adapterDiag.NewEngine(),
		config: config,
		store:  store,
		logger: logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting diagnostics API on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/diagnostics", s.handleListDiagnostics)
		r.Post("/diagnostics/yearly", s.handleYearly)
		r.Post("/diagnostics/suite", s.handleSuite)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}/yearly", s.handleGetYearly)
		r.Get("/runs/{id}/suite", s.handleGetSuite)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Zerolog().Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// writeJSON sends v with the given status
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

// writeError maps the error code onto an HTTP status
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInsufficientData, errors.CodeNumericDegeneracy:
		return http.StatusUnprocessableEntity
	case errors.CodeInvalidParameter, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidInput("invalid request body: " + err.Error())
	}
	return nil
}
