// Package server implements the HTTP API that exposes the two chatbots:
// POST /doctor_chat for diagnosis-code mapping and POST /landing_chat for
// platform questions. The server is started by the `medbot serve` CLI
// command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medlink-hq/medbot-go/internal/embedder"
	"github.com/medlink-hq/medbot-go/internal/logging"
	"github.com/medlink-hq/medbot-go/internal/prompt"
	"github.com/medlink-hq/medbot-go/internal/rag"
)

// New constructs a Server from the two bot pipelines and config.
func New(doctor, landing answerer, cfg *Config) (*Server, error) {
	if doctor == nil {
		return nil, fmt.Errorf("server: doctor bot must not be nil")
	}
	if landing == nil {
		return nil, fmt.Errorf("server: landing bot must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout covers the full generate call, so it must exceed
		// RequestTimeout.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		doctor:  doctor,
		landing: landing,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(cfg.Registry),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: MEDBOT_API_KEY not set, chat endpoints are unauthenticated")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	// Chat endpoints carry auth and per-IP rate limiting; probes do not.
	chat := func(kind prompt.BotKind, bot answerer) http.Handler {
		var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.handleChat(w, r, kind, bot)
		})
		h = rl.middleware(h)
		h = authMiddleware(cfg.APIKey, h)
		return h
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.Handle("POST /doctor_chat", chat(prompt.BotDoctor, doctor))
	mux.Handle("POST /landing_chat", chat(prompt.BotLanding, landing))
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	handler := corsMiddleware(cfg.AllowedOrigins, mux)
	handler = s.instrument(handler)
	handler = requestLogger(s.log, handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleChat handles one chat request for the given bot. The answer is
// returned as JSON; failures map to status codes by their classification and
// never produce an empty 200 answer.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, kind prompt.BotKind, bot answerer) {
	log := logging.FromContext(r.Context()).With(slog.String("bot", string(kind)))
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.finishChat(w, kind, start, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.finishChat(w, kind, start, http.StatusBadRequest, "query is required")
		return
	}
	if utf8.RuneCountInString(req.Query) > embedder.MaxInputRunes {
		s.finishChat(w, kind, start, http.StatusBadRequest,
			fmt.Sprintf("query exceeds the %d character limit", embedder.MaxInputRunes))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	answer, err := bot.Answer(ctx, req.Query)
	if err != nil {
		class := rag.ClassOf(err)
		status := rag.HTTPStatus(class)
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		log.Error("chat request failed",
			slog.String("class", string(class)),
			slog.Any("error", err),
		)
		s.finishChat(w, kind, start, status, chatErrorMessage(class))
		return
	}

	s.metrics.chatRequestsTotal.WithLabelValues(string(kind), "ok").Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(chatResponse{Answer: answer}); err != nil {
		log.Error("chat encode error", slog.Any("error", err))
	}
}

// finishChat records metrics for a failed or rejected request and writes the
// JSON error body.
func (s *Server) finishChat(w http.ResponseWriter, kind prompt.BotKind, start time.Time, status int, msg string) {
	outcome := "error"
	if status == http.StatusBadRequest {
		outcome = "rejected"
	}
	s.metrics.chatRequestsTotal.WithLabelValues(string(kind), outcome).Inc()
	s.metrics.chatDurationSeconds.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// chatErrorMessage maps a failure class to the operator-safe message returned
// to clients. Internal error detail stays in the logs.
func chatErrorMessage(class rag.Class) string {
	switch class {
	case rag.ClassEncoding:
		return "query could not be processed"
	case rag.ClassStoreUnavailable:
		return "knowledge base is not ready yet"
	case rag.ClassStore:
		return "knowledge base is unavailable"
	case rag.ClassGeneration:
		return "answer generation failed"
	default:
		return "internal error"
	}
}
