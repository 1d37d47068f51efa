// Package server hosts the protected webhook endpoints: one chi router with
// a validator middleware per configured path, and a receipt handler that
// persists accepted payloads.
package server

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

	"github.com/sigilhq/sigil/internal/config"
	"github.com/sigilhq/sigil/internal/keys"
	"github.com/sigilhq/sigil/internal/signature"
	"github.com/sigilhq/sigil/internal/store"
	"github.com/sigilhq/sigil/internal/validate"
)

// ReceiptResponse is the JSON response for an accepted delivery.
type ReceiptResponse struct {
	MessageID string `json:"message_id"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// ErrorResponse is the JSON response for receiver errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the webhook receiver.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
	clock  signature.Clock
	server *http.Server

	// validators maps endpoint paths to their configured validators.
	validators map[string]*validate.Validator
}

// New builds a Server from configuration. Endpoint policies (secret,
// tolerance, body ceiling, token cap) were validated at config load; New
// assumes a well-formed config. A nil clock uses the system clock.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, clock signature.Clock) (*Server, error) {
	if clock == nil {
		clock = signature.SystemClock{}
	}

	validators := make(map[string]*validate.Validator, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		secret, err := ep.ResolveSecret(cfg.Secrets)
		if err != nil {
			return nil, err
		}
		maxBody, err := config.ParseSize(ep.MaxBodySize)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", ep.Path, err)
		}

		validators[ep.Path] = validate.New(validate.Options{
			Ring:        keys.StaticRing([]byte(secret)),
			Clock:       clock,
			Tolerance:   ep.Tolerance,
			MaxBodySize: maxBody,
			MaxTags:     ep.MaxSignatures,
			Logger:      logger,
		})
	}

	return &Server{
		cfg:        cfg,
		store:      st,
		logger:     logger,
		clock:      clock,
		validators: validators,
	}, nil
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("receiver starting", "listen", s.cfg.Listen, "endpoints", len(s.validators))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("receiver shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("receiver shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("receiver error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	for path, v := range s.validators {
		r.With(v.Middleware).Post(path, s.handleDelivery)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/receipts", s.handleRecentReceipts)
	r.Get("/receipts/{id}", s.handleGetReceipt)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payload bodies).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleDelivery runs after the validator accepted the request. It persists
// the payload under the validated message id and acknowledges with 202.
func (s *Server) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wh, ok := validate.FromContext(ctx)
	if !ok {
		// Only reachable if the route was wired without the validator.
		s.respondError(w, http.StatusInternalServerError, "validation artifact missing")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}

	inserted, err := s.store.Save(ctx, store.Receipt{
		MessageID: wh.ID,
		Endpoint:  r.URL.Path,
		SignedAt:  wh.Timestamp.Unix(),
		Body:      body,
	})
	if err != nil {
		s.logger.Error("failed to persist payload",
			"path", r.URL.Path,
			"message_id", wh.ID,
			"error", err,
		)
		s.respondError(w, http.StatusInternalServerError, "failed to persist payload")
		return
	}

	s.logger.Info("webhook accepted",
		"path", r.URL.Path,
		"message_id", wh.ID,
		"signed_at", wh.Timestamp.Unix(),
		"duplicate", !inserted,
	)

	s.respondJSON(w, http.StatusAccepted, ReceiptResponse{
		MessageID: wh.ID,
		Duplicate: !inserted,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecentReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.store.Recent(r.Context(), 50)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list receipts")
		return
	}

	type item struct {
		MessageID  string `json:"message_id"`
		Endpoint   string `json:"endpoint"`
		SignedAt   int64  `json:"signed_at"`
		ReceivedAt string `json:"received_at"`
	}
	out := make([]item, 0, len(receipts))
	for _, rec := range receipts {
		out = append(out, item{rec.MessageID, rec.Endpoint, rec.SignedAt, rec.ReceivedAt})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "receipt not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "failed to load receipt")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(signature.HeaderID, rec.MessageID)
	w.WriteHeader(http.StatusOK)
	w.Write(rec.Body)
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
