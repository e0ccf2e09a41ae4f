// Package webhook serves the HTTP trigger surface: the Dropbox webhook
// endpoint, a manual run endpoint, health and metrics.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driving"
	"github.com/custodia-labs/glowbox/internal/logger"
)

// maxBodyBytes bounds webhook notification bodies.
const maxBodyBytes = 1 << 20

// Config configures the trigger server.
type Config struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string

	// AppSecret keys webhook signature verification.
	AppSecret string

	// Metrics is served on /metrics when set.
	Metrics http.Handler

	// OnBusy is called when a synchronous trigger finds a run in progress.
	OnBusy func(domain.Trigger)

	// NewRequestID generates run request IDs. Defaults to uuid.NewString.
	NewRequestID func() string

	// ShutdownTimeout bounds graceful shutdown (default: 30s).
	ShutdownTimeout time.Duration

	// BusyRetryInterval is the first wait before a webhook run that found
	// another run in progress tries again (default: 2s).
	BusyRetryInterval time.Duration

	// BusyRetryMaxInterval caps the wait between those retries (default: 30s).
	BusyRetryMaxInterval time.Duration
}

// Server triggers delta runs from HTTP requests.
type Server struct {
	processor driving.DeltaProcessor
	cfg       Config
	secret    []byte
	runs      *coalescer

	// baseCtx outlives individual requests; webhook runs use it.
	baseCtx context.Context
}

// errorBody is the JSON error response.
type errorBody struct {
	Error string `json:"error"`
}

// NewServer creates a trigger server for processor.
func NewServer(processor driving.DeltaProcessor, cfg Config) *Server {
	if cfg.NewRequestID == nil {
		cfg.NewRequestID = uuid.NewString
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.BusyRetryInterval <= 0 {
		cfg.BusyRetryInterval = 2 * time.Second
	}
	if cfg.BusyRetryMaxInterval < cfg.BusyRetryInterval {
		cfg.BusyRetryMaxInterval = max(30*time.Second, cfg.BusyRetryInterval)
	}
	s := &Server{
		processor: processor,
		cfg:       cfg,
		secret:    []byte(cfg.AppSecret),
		baseCtx:   context.Background(),
	}
	s.runs = newCoalescer(s.runWebhook)
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dropbox/webhook", s.handleChallenge)
	mux.HandleFunc("POST /dropbox/webhook", s.handleNotification)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.cfg.Metrics != nil {
		mux.Handle("GET /metrics", s.cfg.Metrics)
	}
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and waits for any webhook-triggered run to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.baseCtx = ctx

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()
	logger.Info("webhook: listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.runs.Wait()
	logger.Info("webhook: stopped")
	return nil
}

// handleChallenge echoes the verification challenge.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("challenge")
	if challenge == "" {
		http.Error(w, "Missing challenge", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, challenge) //nolint:errcheck
}

// handleNotification verifies the signature, ACKs, then runs in the background.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := VerifySignature(s.secret, body, r.Header.Get(SignatureHeader)); err != nil {
		logger.Warn("webhook: rejected notification from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	logger.Debug("webhook: notification %s", body)

	if !s.runs.Trigger(s.baseCtx) {
		logger.Info("webhook: run in progress, follow-up queued")
	}
}

// runWebhook is the coalesced background run. When a manual or scheduled
// run holds the processor it retries until that run has finished, so the
// changes a notification announced are never left for a later trigger.
func (s *Server) runWebhook(ctx context.Context) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.BusyRetryInterval
	policy.MaxInterval = s.cfg.BusyRetryMaxInterval
	policy.MaxElapsedTime = 0

	var requestID string
	operation := func() error {
		requestID = s.cfg.NewRequestID()
		_, err := s.processor.RunOnce(ctx, domain.TriggerWebhook, requestID)
		if errors.Is(err, domain.ErrRunInProgress) {
			return err
		}
		// Run failures are logged by the processor; only busy is retried.
		return nil
	}
	notify := func(_ error, wait time.Duration) {
		s.busy(domain.TriggerWebhook)
		logger.Info("[%s] webhook run deferred: another run is in progress, retrying in %s",
			requestID, wait.Round(time.Millisecond))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		logger.Info("[%s] webhook run abandoned: %v", requestID, ctx.Err())
	}
}

// handleRun runs synchronously and returns the summary.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	requestID := s.cfg.NewRequestID()
	summary, err := s.processor.RunOnce(r.Context(), domain.TriggerManual, requestID)

	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		s.busy(domain.TriggerManual)
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) busy(trigger domain.Trigger) {
	if s.cfg.OnBusy != nil {
		s.cfg.OnBusy(trigger)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("webhook: encoding response: %v", err)
	}
}
