// Package api is the HTTP edge of the service: routing, authentication,
// rate limiting and the streaming chat endpoint.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/larkhq/lark/internal/auth"
)

// Store is everything the HTTP handlers need from persistence.
type Store interface {
	conversationStore
	userStore
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Sender      Sender             // Required: the chat orchestrator
	Store       Store              // Required
	Verifier    auth.TokenVerifier // Required
	Pool        *pgxpool.Pool      // Optional: nil disables pool stats in /ready
	CORSOrigins []string           // Allowed origins for CORS
	IsDev       bool               // Disables HSTS
	TrustProxy  bool               // Trust X-Real-IP/X-Forwarded-For headers
	RateRPS     float64            // Rate limiter refill per IP (0 = default 5/s)
	RateBurst   int                // Rate limiter burst size per IP (0 = default 10)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("token verifier is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{sender: cfg.Sender, logger: logger}
	cv := &conversationHandler{store: cfg.Store, logger: logger}
	uh := &userHandler{store: cfg.Store, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/conversations", cv.create)
	mux.HandleFunc("GET /api/v1/conversations", cv.list)
	mux.HandleFunc("GET /api/v1/conversations/{id}", cv.get)
	mux.HandleFunc("POST /api/v1/conversations/{id}/messages", ch.send)

	mux.HandleFunc("GET /api/v1/users/me", uh.me)
	mux.HandleFunc("PATCH /api/v1/users/me/preferences", uh.updatePreferences)

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 5.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	rl := newIPLimiter(rps, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Auth → Routes
	// RequestID must be before Logging so request_id is available in logs.
	// CORS must be before RateLimit so preflight OPTIONS gets proper headers.
	var handler http.Handler = mux
	handler = authMiddleware(cfg.Verifier, logger)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Health probes bypass auth and rate limiting.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
