package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mwhited/typoscope/internal/analysis"
	"github.com/mwhited/typoscope/internal/cache"
	"github.com/mwhited/typoscope/internal/config"
	"github.com/mwhited/typoscope/internal/db"
	"github.com/mwhited/typoscope/internal/logger"
	"github.com/mwhited/typoscope/internal/report"
	"github.com/mwhited/typoscope/internal/server/ratelimit"
	"github.com/mwhited/typoscope/internal/vision"
)

// Store is the file and maintenance persistence the handlers need.
// *db.DB satisfies it.
type Store interface {
	InsertFile(ctx context.Context, f *db.File) (uuid.UUID, error)
	GetFileByHash(ctx context.Context, contentHash string) (*db.File, error)
	GetFileContent(ctx context.Context, id uuid.UUID) (*db.File, error)
	LatestAnalysisForFile(ctx context.Context, fileID uuid.UUID) (*db.Analysis, error)
	DeleteRateWindowsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	database   *db.DB // nil when constructed with explicit deps in tests
	store      Store
	cache      *cache.Cache
	analyzer   *analysis.Service
	limiter    *ratelimit.Limiter
	vision     vision.Client
	log        zerolog.Logger
}

// New creates a server wired against a live database and, when an API key is
// configured, a vision provider.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	var visionClient vision.Client
	if cfg.VisionAPIKey != "" {
		visionClient, err = vision.NewClient(ctx, vision.Config{
			Provider: vision.Provider(cfg.VisionProvider),
			Model:    cfg.VisionModel,
			APIKey:   cfg.VisionAPIKey,
		})
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create vision client: %w", err)
		}
	}

	policy := ratelimit.PolicyEnforcing
	if cfg.RateLimitDisabled {
		policy = ratelimit.PolicyAlwaysAdmit
	}
	limiter := ratelimit.New(database, ratelimit.Config{
		IdentityLimit: cfg.RateLimitPerUser,
		GlobalLimit:   cfg.RateLimitGlobal,
		Policy:        policy,
	})

	resultCache := cache.New(database)
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	analyzer := analysis.New(database, resultCache, visionClient, report.NewBuilder(report.SectionConfig{}), ttl)

	s := newWithDeps(database, resultCache, analyzer, limiter, visionClient)
	s.database = database
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second, // vision calls can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// newWithDeps wires a server from explicit collaborators. Used by New and by
// handler tests that substitute in-memory stores.
func newWithDeps(store Store, resultCache *cache.Cache, analyzer *analysis.Service, limiter *ratelimit.Limiter, visionClient vision.Client) *Server {
	return &Server{
		store:    store,
		cache:    resultCache,
		analyzer: analyzer,
		limiter:  limiter,
		vision:   visionClient,
		log:      logger.WithComponent("server"),
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /files/{id}", s.handleGetFile)
	mux.HandleFunc("GET /files/{id}/analysis", s.handleLatestAnalysis)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/database", s.handleHealthDatabase)
	mux.HandleFunc("GET /health/vision", s.handleHealthVision)

	mux.HandleFunc("POST /admin/cleanup", s.handleAdminCleanup)
	mux.HandleFunc("DELETE /admin/cache", s.handleCacheInvalidate)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(err, "server error")
		}
	}()

	<-stop
	s.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.vision != nil {
		if err := s.vision.Close(); err != nil {
			s.log.Error().Err(err).Msg("failed to close vision client")
		}
	}
	if s.database != nil {
		s.database.Close()
	}
	s.log.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit gates analysis requests. Only POST /analyze burns quota;
// uploads, reads and health checks are unmetered.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			next.ServeHTTP(w, r)
			return
		}

		identity := ratelimit.IdentityFromRequest(r)
		decision := s.limiter.Admit(r.Context(), identity, time.Now())

		setRateLimitHeaders(w, decision)
		if !decision.Allowed {
			s.rateLimitResponse(w, decision)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	if d.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", d.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", d.ResetAt.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, d ratelimit.Decision) {
	if d.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", d.RetryAfterSeconds))
	}

	s.log.Warn().
		Int("limit", d.Limit).
		Time("reset_at", d.ResetAt).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":       "rate_limit_exceeded",
		"message":     "Rate limit exceeded. Please try again later.",
		"limit":       d.Limit,
		"remaining":   d.Remaining,
		"reset_at":    d.ResetAt.Format(time.RFC3339),
		"retry_after": d.RetryAfterSeconds,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response with the caller-safe message.
// Whenever that message hides the error's detail, the detail is logged here
// so it is never lost.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	msg := publicMessage(err)
	if status >= http.StatusInternalServerError || msg != err.Error() {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.jsonResponse(w, status, map[string]string{"error": msg})
}
