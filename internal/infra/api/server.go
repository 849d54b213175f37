package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/usecase"
)

// RateLimiter decides whether key may proceed. A nil *redis.RateLimiter
// satisfies it and allows everything.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Pinger reports storage liveness for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// MirrorWebhookStatus copies the webhook body status onto the response.
	MirrorWebhookStatus bool
	RequestTimeout      time.Duration
	// TrustProxyHeaders takes the client address from X-Forwarded-For,
	// X-Real-IP or True-Client-IP. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool
}

// Server exposes the billing webhook and the sign-in endpoints.
type Server struct {
	webhooks usecase.WebhookUseCase
	signIn   usecase.SignInUseCase
	users    repository.UserRepository
	sessions *SessionManager
	limiter  RateLimiter
	db       Pinger
	opts     Options
	log      *zerolog.Logger
}

func NewServer(
	webhooks usecase.WebhookUseCase,
	signIn usecase.SignInUseCase,
	users repository.UserRepository,
	sessions *SessionManager,
	limiter RateLimiter,
	db Pinger,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	return &Server{
		webhooks: webhooks,
		signIn:   signIn,
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		db:       db,
		opts:     opts,
		log:      logger,
	}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(
		TraceID(),
		Recover(s.log),
		RequestLog(s.log),
		Timeout(s.opts.RequestTimeout),
	)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/payments/webhook", s.handleWebhook)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-in", s.handleSignIn)
			r.Get("/oauth/{provider}", s.handleOAuth)
			r.Post("/sign-out", s.handleSignOut)
			r.Get("/session", s.handleSession)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
