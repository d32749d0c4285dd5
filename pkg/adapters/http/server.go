package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SSE topics.
const (
	TopicRun       = "run"
	TopicVariables = "variables"
)

// Engine defines what the HTTP API needs from a running card engine.
type Engine interface {
	Snapshot() *domain.RunSnapshot
	CompleteManually(ctx context.Context, nodeID string) error
	NotifySyncComplete(variableID string) int
}

// Server exposes a run over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer

	mu   sync.Mutex
	last *domain.RunSnapshot
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a server for engine.
// The engine may be assigned after construction so that Hooks can be passed to it.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/run", s.GetRun)
	r.Get("/nodes/{id}", s.GetNode)
	r.Post("/nodes/{id}/complete", s.CompleteNode)
	r.Post("/sync", s.NotifySync)
	r.Get("/events", s.SubscribeRun)
	r.Get("/variables/events", s.SubscribeVariables)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Hooks returns lifecycle hooks that push run diffs to SSE subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStatus: func(context.Context, *domain.NodeEvent) { s.Refresh() },
		OnSync:       func(context.Context, *domain.SyncEvent) { s.Refresh() },
	}
}

// Refresh broadcasts the difference between the last published snapshot and the current one.
func (s *Server) Refresh() {
	if s.Engine == nil {
		return
	}
	snap := s.Engine.Snapshot()

	s.mu.Lock()
	diff := domain.Diff(s.last, snap)
	s.last = snap
	s.mu.Unlock()

	if diff == nil || diff.IsEmpty() {
		return
	}
	bytes, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("Refresh: diff encode failed", "error", err)
		return
	}
	s.Streams.Broadcast(TopicRun, string(bytes))
}

// Publish forwards a variable change event to SSE subscribers.
func (s *Server) Publish(ev domain.ChangeEvent) {
	bytes, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("Publish: event encode failed", "error", err)
		return
	}
	s.Streams.Broadcast(TopicVariables, string(bytes))
}

// Relay subscribes to feed and republishes its events on /variables/events.
func (s *Server) Relay(ctx context.Context, feed ports.ChangeFeed) (func(), error) {
	return feed.Subscribe(ctx, s.Publish)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cardflow-http",
		"version": strings.TrimSpace(cardflow.Version),
	})
}

// GetRun handles the GET /run request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Snapshot())
}

// GetNode handles the GET /nodes/{id} request.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, n := range s.Engine.Snapshot().Nodes {
		if n.ID == id {
			writeJSON(w, http.StatusOK, n)
			return
		}
	}
	http.Error(w, fmt.Sprintf("node %s not found", id), http.StatusNotFound)
}

// CompleteNode handles the POST /nodes/{id}/complete request.
// The response carries the snapshot after the run resumed.
func (s *Server) CompleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.Engine.CompleteManually(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNodeNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrNotSyncing):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, domain.ErrEngineStopped):
		http.Error(w, err.Error(), http.StatusGone)
		return
	default:
		// The node was confirmed; a later node failed while resuming.
		s.logger.Warn("CompleteNode: run halted after resume", "node", id, "error", err)
	}
	s.Refresh()
	writeJSON(w, http.StatusOK, s.Engine.Snapshot())
}

type syncRequest struct {
	VariableID string `json:"variable_id"`
}

// NotifySync handles the POST /sync request: an upstream system reports a variable as ready.
func (s *Server) NotifySync(w http.ResponseWriter, r *http.Request) {
	var body syncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.VariableID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("NotifySync: Invalid request body", "error", err)
		return
	}
	fired := s.Engine.NotifySyncComplete(body.VariableID)
	writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}

// SubscribeRun handles the GET /events request (SSE of run diffs).
// The first message is the full snapshot expressed as a diff.
func (s *Server) SubscribeRun(w http.ResponseWriter, r *http.Request) {
	initial, _ := json.Marshal(domain.Diff(nil, s.Engine.Snapshot()))
	s.stream(w, r, TopicRun, string(initial))
}

// SubscribeVariables handles the GET /variables/events request (SSE of change events).
func (s *Server) SubscribeVariables(w http.ResponseWriter, r *http.Request) {
	s.stream(w, r, TopicVariables, "")
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, topic, initial string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("stream: Streaming not supported")
		return
	}

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing", "topic", topic)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if initial != "" {
		fmt.Fprintf(w, "data: %s\n\n", initial)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
