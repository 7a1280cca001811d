// Package api provides the HTTP API server for the scenario engine.
// It exposes stateless simulation plus per-owner scenario storage.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"scenario-engine/internal/policy"
	"scenario-engine/internal/simulation"
	"scenario-engine/internal/store"
	scenarioerrors "scenario-engine/pkg/errors"
	"scenario-engine/pkg/platform"
)

// Version is reported by /health and /version.
var Version = "0.1.0"

// Server is the HTTP API server
type Server struct {
	httpServer   *http.Server
	store        store.Store
	saver        *store.AsyncSaver
	policyEngine *policy.Engine
	config       *Config
	startedAt    time.Time
}

// Config holds server configuration
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
	APIKey         string
	SaveTimeout    time.Duration
	PoliciesDir    string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 << 20, // 1MB
		CORSOrigins:    []string{"*"},
		SaveTimeout:    10 * time.Second,
	}
}

// NewServer creates a new API server backed by s.
func NewServer(s store.Store, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	return &Server{
		store:        s,
		saver:        store.NewAsyncSaver(s, config.SaveTimeout),
		policyEngine: policy.NewEngine().WithRegoDir(config.PoliciesDir),
		config:       config,
		startedAt:    time.Now(),
	}
}

// Handler builds the router. It is exported for tests and embedding.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(platform.APIKeyMiddleware(s.config.APIKey))

		r.Post("/simulate", s.handleSimulate)
		r.Post("/sweep", s.handleSweep)
		r.Get("/policies", s.handleListPolicies)

		r.Route("/scenarios/{ownerID}", func(r chi.Router) {
			r.Get("/", s.handleGetScenario)
			r.Put("/", s.handlePutScenario)
			r.Post("/simulate", s.handleOwnerSimulate)
		})
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.Info().Int("port", s.config.Port).Str("version", Version).Msg("Scenario API server starting")
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts server with graceful shutdown handling
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		log.Info().Msg("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	}
}

// Shutdown stops accepting requests, then waits for pending background saves.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if cerr := s.saver.Close(ctx); cerr != nil && err == nil {
		err = fmt.Errorf("pending scenario saves: %w", cerr)
	}
	return err
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("remote", r.RemoteAddr).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if p, ok := s.store.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("store not ready")
			s.jsonError(w, http.StatusServiceUnavailable, "store not ready")
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"version":        Version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

// =============================================================================
// SIMULATION ENDPOINTS
// =============================================================================

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, s.simulate(r.Context(), input))
}

// SweepRequest is the API request for a utilization sweep. Scenario fields
// that are omitted keep their defaults.
type SweepRequest struct {
	Scenario simulation.ScenarioInput `json:"scenario"`
	From     float64                  `json:"from"`
	To       float64                  `json:"to"`
	Step     float64                  `json:"step"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	req := SweepRequest{Scenario: simulation.DefaultInput(), From: 0, To: 100, Step: 5}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if errs := req.Scenario.Validate(); len(errs) > 0 {
		s.validationError(w, errs)
		return
	}

	points, err := simulation.Sweep(req.Scenario, req.From, req.To, req.Step)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, buildSweepResponse(points))
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.policyEngine.Policies())
}

// =============================================================================
// SCENARIO STORE ENDPOINTS
// =============================================================================

// StoredScenarioResponse is returned when reading an owner's scenario.
type StoredScenarioResponse struct {
	OwnerID string                   `json:"owner_id"`
	Input   simulation.ScenarioInput `json:"input"`
	Result  ScenarioResponse         `json:"result"`
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	if err := store.ValidateOwnerID(ownerID); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := s.store.Load(r.Context(), ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("failed to load scenario")
		s.storeError(w, "load")
		return
	}
	if input == nil {
		nf := scenarioerrors.NewNotFoundError(ownerID)
		s.jsonResponse(w, http.StatusNotFound, map[string]interface{}{
			"error": nf.Message,
			"code":  nf.Code,
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, StoredScenarioResponse{
		OwnerID: ownerID,
		Input:   *input,
		Result:  s.simulate(r.Context(), *input),
	})
}

func (s *Server) handlePutScenario(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	if err := store.ValidateOwnerID(ownerID); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	if err := s.store.Save(r.Context(), ownerID, input); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("failed to save scenario")
		s.storeError(w, "save")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOwnerSimulate answers with the computed result right away and
// persists the input in the background.
func (s *Server) handleOwnerSimulate(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "ownerID")
	if err := store.ValidateOwnerID(ownerID); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	resp := s.simulate(r.Context(), input)
	s.saver.SaveAsync(ownerID, input)
	s.jsonResponse(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeInput reads a ScenarioInput onto the defaults and rejects
// out-of-domain values.
func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (simulation.ScenarioInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	input := simulation.DefaultInput()
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return input, false
	}
	if errs := input.Validate(); len(errs) > 0 {
		s.validationError(w, errs)
		return input, false
	}
	return input, true
}

func (s *Server) simulate(ctx context.Context, input simulation.ScenarioInput) ScenarioResponse {
	result := simulation.ComputeScenario(input)

	pol, err := s.policyEngine.Evaluate(ctx, policy.EvaluationRequest{Result: result})
	if err != nil {
		// Policy evaluation is non-fatal
		log.Warn().Err(err).Msg("policy evaluation failed")
		pol = &policy.EvaluationResult{
			Decision: policy.DecisionPass,
			Warnings: []policy.Warning{{Message: fmt.Sprintf("policy evaluation failed: %v", err)}},
		}
	}
	return buildScenarioResponse(result, pol)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}

func (s *Server) storeError(w http.ResponseWriter, op string) {
	se := scenarioerrors.NewStoreFailureError(op)
	s.jsonResponse(w, http.StatusInternalServerError, map[string]interface{}{
		"error": se.Message,
		"code":  se.Code,
	})
}

func (s *Server) validationError(w http.ResponseWriter, errs []*scenarioerrors.ScenarioError) {
	s.jsonResponse(w, http.StatusBadRequest, map[string]interface{}{
		"error":   "invalid scenario",
		"details": errs,
	})
}
