// Package webhook exposes the HTTP surface: the chat-platform
// interactions endpoint, the ingest trigger and a status probe.
package webhook

import (
	"context"
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
	"github.com/campuswatch/watcher/internal/core/ports/driving"
	"github.com/campuswatch/watcher/internal/core/services"
)

// apologyMessage is delivered when answering fails for any reason.
const apologyMessage = "A disturbance in the timeline... (Internal Error)"

// unknownEventMessage answers interaction types the bot does not handle.
const unknownEventMessage = "Unknown nexus event."

// TaskQueue accepts background work. Satisfied by services.Dispatcher.
type TaskQueue interface {
	Submit(task services.Task) error
}

// Config holds the server's wiring that is not a service dependency.
type Config struct {
	// Addr is the listen address (e.g., ":8080").
	Addr string

	// PublicKey verifies interaction request signatures.
	PublicKey ed25519.PublicKey

	// ApplicationID is used for deferred delivery when the platform
	// omits it from the interaction payload.
	ApplicationID string

	// CommandName is the slash command the bot answers.
	CommandName string

	// TriggerSecret authorises the ingest trigger endpoint.
	TriggerSecret string

	// AnswerTimeout bounds one background answer task.
	AnswerTimeout time.Duration
}

// Server is the HTTP driving adapter.
type Server struct {
	cfg      Config
	answerer driving.AnswerService
	ingest   driving.IngestOrchestrator
	queue    TaskQueue
	delivery driven.DeliveryService
	log      *zap.Logger

	server    *http.Server
	listener  net.Listener
	startedAt time.Time
}

// NewServer creates the webhook server. It does not start listening.
func NewServer(
	cfg Config,
	answerer driving.AnswerService,
	ingest driving.IngestOrchestrator,
	queue TaskQueue,
	delivery driven.DeliveryService,
	log *zap.Logger,
) *Server {
	if cfg.CommandName == "" {
		cfg.CommandName = "watcher"
	}
	if cfg.AnswerTimeout <= 0 {
		cfg.AnswerTimeout = 2 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		answerer:  answerer,
		ingest:    ingest,
		queue:     queue,
		delivery:  delivery,
		log:       log,
		startedAt: time.Now(),
	}
}

// Handler returns the routed handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/interactions", s.handleInteractions)
	mux.HandleFunc("/trigger-update", s.handleTrigger)
	return mux
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("webhook server listening", zap.String("addr", listener.Addr().String()))
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("webhook server failed", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Addr returns the bound address after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleStatus(w, r)
	case http.MethodPost:
		// The platform can be pointed at either / or /interactions.
		s.handleInteraction(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handleInteraction(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.ingest.Status(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"service":         "watcher",
		"status":          "observing",
		"uptime":          time.Since(s.startedAt).Round(time.Second).String(),
		"ingest_running":  status.Running,
		"pages_processed": status.PagesProcessed,
		"error_count":     status.ErrorCount,
	})
}

// handleTrigger launches an ingest run in the background. Authenticated
// by a shared secret, not by platform signature.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	secret := r.URL.Query().Get("secret")
	if secret == "" {
		secret = r.Header.Get("X-Trigger-Secret")
	}
	if s.cfg.TriggerSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.TriggerSecret)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if s.ingest.Status(r.Context()).Running {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "ingest already running"})
		return
	}

	opts := ingestOptionsFromRequest(r)
	err := s.queue.Submit(func(ctx context.Context) {
		if _, err := s.ingest.Ingest(ctx, opts); err != nil {
			s.log.Error("triggered ingest failed", zap.Error(err))
		}
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "queue full"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "update started"})
}

// ingestOptionsFromRequest maps trigger query parameters onto run
// options. No parameters means a full default run.
func ingestOptionsFromRequest(r *http.Request) domain.IngestOptions {
	q := r.URL.Query()
	opts := domain.IngestOptions{
		Website:  q.Get("website") != "false",
		Handbook: q.Get("handbook") != "false",
	}
	if q.Get("mode") == string(domain.IngestFull) {
		opts.Mode = domain.IngestFull
	}
	return opts
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
