// Package server exposes Parley's HTTP surface: the Twilio voice webhooks
// and the call lifecycle API used by the speech collaborators (utterance
// ingest from speech-to-text, response draining for text-to-speech).
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/dativo-io/parley/internal/otel"
)

const defaultTimeout = 30 * time.Second

// Rate limit for the call lifecycle API. Utterance ingest ultimately drives
// LLM calls, so the bucket bounds classification pressure under transcript
// spam.
const (
	defaultRateLimit = 20 // requests per second
	defaultRateBurst = 40
)

// Server holds all dependencies for the HTTP API.
type Server struct {
	router        *chi.Mux
	registry      *Registry
	limiter       *rate.Limiter
	companyName   string
	supportNumber string
	websocketURL  string
	startTime     time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithCompanyName sets the company name rendered into spoken prompts.
func WithCompanyName(name string) Option {
	return func(s *Server) { s.companyName = name }
}

// WithSupportNumber sets the transfer destination used by the /transfer
// TwiML endpoint. Empty renders the unavailable fallback.
func WithSupportNumber(number string) Option {
	return func(s *Server) { s.supportNumber = number }
}

// WithWebsocketURL pins the media stream URL advertised in /voice TwiML.
// When unset the URL is derived from the request host.
func WithWebsocketURL(url string) Option {
	return func(s *Server) { s.websocketURL = url }
}

// WithRateLimit overrides the lifecycle API rate limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewServer builds a Server around the call registry.
func NewServer(registry *Registry, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		registry:  registry,
		limiter:   rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.Middleware())

	r.Get("/health", s.handleHealth)

	// Twilio webhooks (TwiML responses).
	r.Post("/voice", s.handleVoice)
	r.Post("/transfer", s.handleTransfer)

	// Call lifecycle API for the speech collaborators.
	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(s.limiter))
		r.Use(middleware.Timeout(defaultTimeout))

		r.Post("/v1/calls", s.handleCallStart)
		r.Post("/v1/calls/{call_sid}/utterances", s.handleUtterance)
		r.Get("/v1/calls/{call_sid}/responses", s.handleResponses)
		r.Delete("/v1/calls/{call_sid}", s.handleCallEnd)
		r.Get("/v1/status", s.handleStatus)
	})

	return r
}

// rateLimitMiddleware rejects requests once the shared token bucket drains.
func rateLimitMiddleware(l *rate.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
