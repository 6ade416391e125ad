package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/scribe-gw/internal/commits"
	"github.com/mattjoyce/scribe-gw/internal/log"
)

// Server is the webhook HTTP server.
type Server struct {
	config    Config
	verifier  *Verifier
	pipeline  Pipeline
	notifier  Notifier
	publisher Publisher
	logger    *slog.Logger
	server    *http.Server
}

type Option func(*Server)

func WithNotifier(n Notifier) Option {
	return func(s *Server) { s.notifier = n }
}

func WithPublisher(p Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// New creates a webhook server. A missing secret is allowed: every
// request then fails with 500 until the service is reconfigured.
func New(config Config, pipeline Pipeline, logger *slog.Logger, opts ...Option) *Server {
	config = config.withDefaults()
	if logger == nil {
		logger = log.WithComponent("webhook")
	}
	s := &Server{
		config:   config,
		verifier: NewVerifier(config.Secret),
		pipeline: pipeline,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	if !s.verifier.Configured() {
		s.logger.Warn("webhook secret is not configured; all deliveries will be rejected")
	}

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "path", s.config.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post(s.config.Path, s.handleWebhook)
	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.With(
		"delivery_id", r.Header.Get("X-GitHub-Delivery"),
		"event", r.Header.Get("X-GitHub-Event"),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if err := s.verifier.Verify(body, r.Header.Get(s.config.SignatureHeader)); err != nil {
		if errors.Is(err, ErrConfiguration) {
			logger.Error("rejecting delivery", "error", err)
			s.respondError(w, http.StatusInternalServerError, "webhook secret not configured")
			return
		}
		logger.Warn("webhook signature verification failed", "header", s.config.SignatureHeader, "error", err)
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	out, err := s.pipeline.Run(ctx, body)
	if err != nil {
		if errors.Is(err, commits.ErrMalformedPayload) {
			logger.Warn("malformed payload", "error", err)
			s.respondError(w, http.StatusBadRequest, "malformed payload")
			return
		}
		logger.Error("pipeline failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	if !out.Applicable {
		logger.Info("delivery is not a push, skipping")
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: NotPushMessage})
		return
	}

	logger.Info("push processed", "repository", out.Repository, "summaries", len(out.Summaries))
	if s.publisher != nil {
		s.publisher.Publish("webhook.processed", map[string]any{
			"repository": out.Repository,
			"summaries":  len(out.Summaries),
		})
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyChangelog(ctx, out); err != nil {
			logger.Warn("changelog notification failed", "error", err)
		}
	}

	s.respondJSON(w, http.StatusOK, ProcessedResponse{Status: "processed", Summaries: out.Summaries})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
