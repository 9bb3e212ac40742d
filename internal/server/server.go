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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/store"
)

// shutdownGrace bounds the drain period after a termination signal.
const shutdownGrace = 10 * time.Second

// Server represents the HTTP server wired to the interview engine.
type Server struct {
	httpServer *http.Server
	engine     *interview.Engine
	validator  *validator.Validate
	log        *zap.Logger
}

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Engine    *interview.Engine
	Users     store.UserStore
	JWTConfig *config.JWTConfig
	Password  *config.PasswordConfig
	RateLimit middleware.RateLimitConfig
	Log       *zap.Logger
	Port      int
}

// New creates a server instance with its routes registered.
func New(deps Deps) (*Server, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}

	s := &Server{
		engine:    deps.Engine,
		validator: validator.New(),
		log:       deps.Log,
	}

	jwtService := NewJWTService(deps.JWTConfig)
	userService := NewUserService(deps.Users, deps.Password)
	authHandler := NewAuthHandler(userService, jwtService)

	auth := middleware.Auth(jwtService.AsTokenValidator())
	limiter := middleware.NewRateLimiter(deps.RateLimit)

	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)

	// Authenticated interview endpoints
	mux.Handle("POST /interviews", auth(http.HandlerFunc(s.handleStartInterview)))
	mux.Handle("POST /interviews/{session_id}/questions", auth(http.HandlerFunc(s.handleNextQuestion)))
	mux.Handle("POST /interviews/{session_id}/questions/{question_id}/answer", auth(http.HandlerFunc(s.handleSubmitAnswer)))
	mux.Handle("POST /interviews/{session_id}/end", auth(http.HandlerFunc(s.handleEndInterview)))
	mux.Handle("POST /interviews/{session_id}/cancel", auth(http.HandlerFunc(s.handleCancelInterview)))
	mux.Handle("GET /interviews", auth(http.HandlerFunc(s.handleInterviewHistory)))
	mux.Handle("GET /interviews/{session_id}", auth(http.HandlerFunc(s.handleGetInterview)))
	mux.Handle("GET /analytics", auth(http.HandlerFunc(s.handleAnalytics)))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Port),
		Handler:           limiter.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives,
// then drains in-flight requests within the grace period.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.log.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
