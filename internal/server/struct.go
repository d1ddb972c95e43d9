package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// RequestTimeout bounds the full retrieve-and-generate pipeline for one
	// chat request. Defaults to 60s if zero.
	RequestTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /ready.
	// If empty, /ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on the chat
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on the chat endpoints.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// AllowedOrigins is the CORS origin allow-list for browser clients.
	// "*" allows any origin. If empty, no CORS headers are emitted.
	AllowedOrigins []string
	// Registry receives the server's Prometheus metrics and backs GET /metrics.
	// If nil, a fresh registry is created.
	Registry *prometheus.Registry
}

// answerer is the interface the chat handlers call to produce an answer.
// *bot.Pipeline satisfies it; tests inject a fake.
type answerer interface {
	// Answer runs the bot pipeline for one query and returns the plain-text
	// answer.
	Answer(ctx context.Context, query string) (string, error)
}

// Server is the HTTP server exposing the two chatbots.
type Server struct {
	// doctor answers diagnosis-coding queries on POST /doctor_chat.
	doctor answerer
	// landing answers platform queries on POST /landing_chat.
	landing answerer
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /doctor_chat and POST /landing_chat.
type chatRequest struct {
	// Query is the user's natural language question.
	Query string `json:"query"`
}

// chatResponse is the JSON response for the chat endpoints.
type chatResponse struct {
	// Answer is the bot's plain-text answer.
	Answer string `json:"answer"`
}

// errorResponse is the JSON body returned for failed chat requests.
type errorResponse struct {
	// Error describes what went wrong, without internal detail.
	Error string `json:"error"`
}
