package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"fakeartist/internal/app"
	"fakeartist/internal/config"
	"fakeartist/internal/transport/ws"
)

// ReferenceClock is the shared clock served to clients and reported in
// health checks
type ReferenceClock interface {
	app.TimeSource
	SyncedAt() (time.Time, bool)
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	engine *app.Engine
	clock  ReferenceClock
	config *config.Config
	logger *slog.Logger
}

// NewServer creates a new HTTP server. clock is the reference time served
// to clients probing /api/time.
func NewServer(cfg *config.Config, engine *app.Engine, clock ReferenceClock, logger *slog.Logger) *Server {
	s := &Server{
		engine: engine,
		clock:  clock,
		config: cfg,
		logger: logger,
	}

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return s.middleware(mux)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Lookups by access code
	mux.HandleFunc("GET /api/codes/{code}", s.handleGetByCode)
	mux.HandleFunc("GET /api/codes/{code}/exists", s.handleCodeExists)
	mux.HandleFunc("GET /api/codes/{code}/qr", s.handleInviteQR)
	mux.HandleFunc("POST /api/codes/{code}/participants", s.handleJoin)

	// Sessions by ID
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{sessionID}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{sessionID}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/sessions/{sessionID}/participants", s.handleListParticipants)
	mux.HandleFunc("GET /api/sessions/{sessionID}/participants/{participantID}", s.handlePlayerView)
	mux.HandleFunc("DELETE /api/sessions/{sessionID}/participants/{participantID}", s.handleLeave)
	mux.HandleFunc("POST /api/sessions/{sessionID}/participants/{participantID}/reports", s.handleReport)
	mux.HandleFunc("POST /api/sessions/{sessionID}/round", s.handleStartRound)
	mux.HandleFunc("POST /api/sessions/{sessionID}/round/end", s.handleEndRound)
	mux.HandleFunc("POST /api/sessions/{sessionID}/timer/pause", s.handlePause)
	mux.HandleFunc("POST /api/sessions/{sessionID}/timer/resume", s.handleResume)
	mux.HandleFunc("POST /api/sessions/{sessionID}/timer/toggle", s.handleToggle)
	mux.HandleFunc("GET /api/sessions/{sessionID}/timer", s.handleRemaining)

	mux.HandleFunc("GET /api/time", s.handleTime)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	// WebSocket
	mux.Handle("GET /ws", ws.NewHandler(s.engine, s.logger))
}

// middleware wraps the handler with logging and CORS
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// Clients poll the time endpoint; keep it out of production logs
		if s.config.IsDevelopment() || r.URL.Path != "/api/time" {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", time.Since(start),
			)
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
