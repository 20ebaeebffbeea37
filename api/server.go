package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/llmbridge"
	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/logging"
	"github.com/hupe1980/llmbridge/model"
)

const maxStatusChecks = 1000

// Options configures the Server.
type Options struct {
	// RateLimit is the sustained extractions per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	Logger    logging.Logger
	// Now stamps status checks (defaults to time.Now).
	Now func() time.Time
}

// StatusCheck is a recorded liveness ping.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// Server exposes the bridge over HTTP.
type Server struct {
	addr    string
	bridge  *llmbridge.Bridge
	limiter *rate.Limiter
	logger  logging.Logger
	now     func() time.Time

	mu     sync.RWMutex
	checks []StatusCheck
}

// NewServer constructs the API server.
func NewServer(addr string, bridge *llmbridge.Bridge, optFns ...func(o *Options)) *Server {
	opts := Options{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		addr:   addr,
		bridge: bridge,
		logger: logging.OrNoOp(opts.Logger),
		now:    opts.Now,
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return s
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{$}", s.handleRoot)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/session/{id}", s.handleGetSession)
	mux.HandleFunc("POST /api/extract", s.withRateLimit(s.handleExtract))
	mux.HandleFunc("POST /api/status", s.handleCreateStatus)
	mux.HandleFunc("GET /api/status", s.handleListStatus)
	return withCORS(mux)
}

// Start runs the HTTP server until ctx is cancelled or it fails.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if bl, ok := s.logger.(*logging.BridgeLogger); ok {
		server.ErrorLog = slog.NewLogLogger(bl.Slog().Handler(), slog.LevelError)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("API server listening", "address", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "LLM Communication Hub Active"})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Catalog())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var input llmbridge.CreateSessionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.bridge.CreateSession(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := llmbridge.MaxListedSessions
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	sessions, err := s.bridge.Sessions(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.bridge.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req core.ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.bridge.Extract(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ClientName string `json:"client_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ClientName == "" {
		writeDetail(w, http.StatusBadRequest, "client_name is required")
		return
	}

	check := StatusCheck{ID: core.NewID(), ClientName: input.ClientName, Timestamp: s.now().UTC()}

	s.mu.Lock()
	s.checks = append(s.checks, check)
	if len(s.checks) > maxStatusChecks {
		s.checks = s.checks[len(s.checks)-maxStatusChecks:]
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, check)
}

func (s *Server) handleListStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	out := make([]StatusCheck, len(s.checks))
	copy(out, s.checks)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeDetail(w, http.StatusTooManyRequests,
				"Too many extraction requests. Please try again later.")
			return
		}
		next(w, r)
	}
}

// writeError maps err onto a status code and a detail message. Only typed
// errors are echoed verbatim; anything else is logged and reported generically.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "status", status, "error", err.Error())
	} else {
		s.logger.Warn("Request rejected", "status", status, "error", err.Error())
	}
	writeDetail(w, status, detail)
}

func classify(err error) (int, string) {
	if errors.Is(err, core.ErrSessionNotFound) {
		return http.StatusNotFound, "Session not found"
	}

	if errors.Is(err, llmbridge.ErrInvalidInput) {
		return http.StatusBadRequest, err.Error()
	}

	e, ok := core.AsError(err)
	if !ok {
		return http.StatusInternalServerError, "Internal server error"
	}

	detail := e.Error() + ". " + e.Hint()

	switch e.Kind {
	case core.KindInvalidProtocol, core.KindCredentialMissing, core.KindModelInitializationFailed:
		return http.StatusBadRequest, detail
	case core.KindRemoteCallFailed:
		switch e.Remote {
		case core.RemoteQuota:
			return http.StatusTooManyRequests, detail
		case core.RemoteAuth:
			return http.StatusUnauthorized, detail
		}
	}

	return http.StatusInternalServerError, detail
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withCORS allows any origin, matching the permissive browser client setup.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withContext rejects requests once the root context is cancelled.
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			writeDetail(w, http.StatusServiceUnavailable, "Server is shutting down")
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
