// Package proxy exposes the chat cascade over HTTP.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elunari/cascade/pkg/chat"
	"github.com/elunari/cascade/pkg/models"
	"github.com/elunari/cascade/pkg/observability"
)

// Caller-facing messages. Upstream detail never reaches the client.
const (
	msgRateLimited   = "Too many requests. Please wait a moment and try again."
	msgNotConfigured = "AI service not configured"
	msgBusy          = "All AI models are busy right now. Please try again in a moment."
	msgBadRequest    = "invalid request body"
	msgInternal      = "Internal server error"
)

const maxBodyBytes = 1 << 20

// Completer runs a conversation through the cascade.
type Completer interface {
	Complete(ctx context.Context, requestID string, messages []models.ChatMessage) (chat.Reply, error)
}

// Options configures a Server.
type Options struct {
	Listen      string
	MetricsPath string
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// Server is the cascade HTTP front end.
type Server struct {
	listen  string
	chat    Completer
	metrics *observability.Metrics
	logger  *zap.Logger
	mux     *http.ServeMux
}

// New creates a Server routing /api/chat to c. The metrics endpoint is
// mounted only when opts.Metrics is set.
func New(c Completer, opts Options) *Server {
	s := &Server{
		listen:  opts.Listen,
		chat:    c,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		mux:     http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle(path, s.metrics.Handler())
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("cascade proxy listening", zap.String("addr", s.listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.logger.Debug("bad chat request", zap.String("request_id", requestID), zap.Error(err))
		s.metrics.RecordChat("bad_request", time.Since(start))
		writeJSONError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	reply, err := s.chat.Complete(r.Context(), requestID, req.Messages)
	if err != nil {
		status, outcome, msg := classifyError(err)
		s.metrics.RecordChat(outcome, time.Since(start))
		writeJSONError(w, status, msg)
		return
	}

	s.metrics.RecordChat("success", time.Since(start))
	writeJSON(w, http.StatusOK, models.ChatResponse{Message: reply.Content})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classifyError maps a cascade error to status, metric outcome and message.
func classifyError(err error) (int, string, string) {
	var fatal *chat.FatalError
	switch {
	case errors.Is(err, chat.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited", msgRateLimited
	case errors.Is(err, chat.ErrNotConfigured):
		return http.StatusInternalServerError, "not_configured", msgNotConfigured
	case errors.As(err, &fatal):
		return http.StatusServiceUnavailable, "fatal", msgBusy
	case errors.Is(err, chat.ErrExhausted):
		return http.StatusServiceUnavailable, "exhausted", msgBusy
	default:
		return http.StatusInternalServerError, "error", msgInternal
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, models.ErrorResponse{Error: message})
}
