// Package web serves the model and the per-session layout controllers over
// HTTP. Simulator commands stream to the browser over SSE.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/causegraph/pkg/cycles"
	"github.com/ritzau/causegraph/pkg/layout"
	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/pubsub"
)

var errNoModel = errors.New("no model loaded")

// sessionTopicConfig keeps a session's command stream for a browser that
// subscribes after the session was created.
var sessionTopicConfig = pubsub.TopicConfig{
	BufferSize: 64,
	ReplayAll:  true,
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher
	opts      layout.Options
	log       *slog.Logger

	mu       sync.RWMutex
	model    *model.Model
	cycles   []cycles.HierarchyCycle
	sessions map[string]*session

	httpServer *http.Server
}

// NewServer creates a new web server. Sessions lay out with opts.
func NewServer(opts layout.Options) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// model_status: buffer last 10 events, replay only last event to new subscribers
	ssePublisher.ConfigureTopic(pubsub.TopicModelStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false, // Only send current state
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
		opts:      opts,
		log:       logging.New("web"),
		sessions:  make(map[string]*session),
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Publisher returns the publisher used for SSE topics.
func (s *Server) Publisher() *pubsub.SSEPublisher {
	return s.publisher
}

// SetModel installs a freshly loaded model. Open sessions are restarted on
// it in the global view.
func (s *Server) SetModel(m *model.Model, c []cycles.HierarchyCycle) {
	s.mu.Lock()
	s.model = m
	s.cycles = c
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		s.syncSession(sess)
	}
}

// PublishModelStatus publishes a model status event
func (s *Server) PublishModelStatus(status pubsub.ModelStatus) {
	if err := s.publisher.Publish(pubsub.TopicModelStatus, status.State, status); err != nil {
		s.log.Warn("failed to publish model status", "error", err)
	}
}

func (s *Server) currentModel() (*model.Model, []cycles.HierarchyCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, nil, errNoModel
	}
	return s.model, s.cycles, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)
	s.router.Use(logging.SessionIDMiddleware(func(r *http.Request) string {
		return mux.Vars(r)["sid"]
	}))

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/model_status", s.handleSubscribeModelStatus).Methods("GET")
	s.router.HandleFunc("/api/subscribe/sessions/{sid}", s.handleSubscribeSession).Methods("GET")

	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/model", s.handleModel).Methods("GET")
	s.router.HandleFunc("/api/model/nodes/{id}", s.handleNode).Methods("GET")

	// Layout sessions
	s.router.HandleFunc("/api/sessions", s.handleCreateSession).Methods("POST")
	s.router.HandleFunc("/api/sessions/{sid}", s.handleDeleteSession).Methods("DELETE")
	s.router.HandleFunc("/api/sessions/{sid}/view", s.handleView).Methods("GET")
	s.router.HandleFunc("/api/sessions/{sid}/root/{id}", s.handleSelectRoot).Methods("POST")
	s.router.HandleFunc("/api/sessions/{sid}/global", s.handleGlobal).Methods("POST")
	s.router.HandleFunc("/api/sessions/{sid}/depth/{depth}", s.handleDepth).Methods("POST")
	s.router.HandleFunc("/api/sessions/{sid}/engine-stop", s.handleEngineStop).Methods("POST")
	s.router.HandleFunc("/api/sessions/{sid}/screen/{id}", s.handleScreen).Methods("GET")
}

func (s *Server) handleSubscribeModelStatus(w http.ResponseWriter, r *http.Request) {
	s.streamTopic(w, r, pubsub.TopicModelStatus)
}

func (s *Server) handleSubscribeSession(w http.ResponseWriter, r *http.Request) {
	if _, err := s.lookupSession(r); err != nil {
		writeError(w, err)
		return
	}
	s.streamTopic(w, r, pubsub.SessionTopic(mux.Vars(r)["sid"]))
}

// streamTopic relays topic to the client until either side goes away.
func (s *Server) streamTopic(w http.ResponseWriter, r *http.Request, topic string) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	// Create subscription
	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	logging.DebugContext(r.Context(), "sse client connected", "topic", topic)

	events := sub.Events()
	for {
		select {
		case <-r.Context().Done():
			logging.DebugContext(r.Context(), "sse client disconnected", "topic", topic)
			return
		case event, ok := <-events:
			if !ok {
				logging.DebugContext(r.Context(), "sse stream ended", "topic", topic)
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.DebugContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	loaded := s.model != nil
	count := len(s.sessions)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"model":    loaded,
		"sessions": count,
	})
}

// ModelSummary is the overview served at /api/model.
type ModelSummary struct {
	Nodes          int                     `json:"nodes"`
	ChildLinks     int                     `json:"childLinks"`
	InterfaceLinks int                     `json:"interfaceLinks"`
	Roots          []model.NodeID          `json:"roots"`
	FunctionRoots  []model.NodeID          `json:"functionRoots"`
	Severity       model.SeverityRange     `json:"severity"`
	Cycles         []cycles.HierarchyCycle `json:"cycles"`
	DroppedLinks   int                     `json:"droppedLinks"`
	DuplicateNodes int                     `json:"duplicateNodes"`
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	m, c, err := s.currentModel()
	if err != nil {
		writeError(w, err)
		return
	}
	if c == nil {
		c = []cycles.HierarchyCycle{}
	}

	writeJSON(w, http.StatusOK, ModelSummary{
		Nodes:          len(m.Nodes),
		ChildLinks:     len(m.ChildLinks),
		InterfaceLinks: len(m.InterfaceLinks),
		Roots:          nonNil(m.Roots),
		FunctionRoots:  nonNil(m.FunctionRoots),
		Severity:       m.Severity,
		Cycles:         c,
		DroppedLinks:   m.DroppedLinks,
		DuplicateNodes: m.DuplicateNodes,
	})
}

// NodeDetail is one node with its color and hierarchy neighbors.
type NodeDetail struct {
	model.Node
	Color         string         `json:"color"`
	FunctionRoot  bool           `json:"functionRoot"`
	Children      []model.NodeID `json:"children"`
	Parents       []model.NodeID `json:"parents"`
	InterfaceAdj  []model.NodeID `json:"interfaceNeighbors"`
	HierarchyRoot bool           `json:"hierarchyRoot"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	m, _, err := s.currentModel()
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := parseNodeID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	n, ok := m.Node(id)
	if !ok {
		http.Error(w, fmt.Sprintf("node %d not found", id), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, NodeDetail{
		Node:          *n,
		Color:         m.Color(id),
		FunctionRoot:  m.IsFunctionRoot(id),
		Children:      nonNil(m.Children[id]),
		Parents:       nonNil(m.Parents[id]),
		InterfaceAdj:  nonNil(m.IfaceAdj[id]),
		HierarchyRoot: len(m.Parents[id]) == 0,
	})
}

// SessionList returns the ids of open sessions, sorted.
func (s *Server) SessionList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting web server", "url", "http://"+displayAddr(addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down web server")
	// SSE streams end when the publisher closes
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string {
	return e.msg
}

func parseNodeID(raw string) (model.NodeID, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequestError{msg: fmt.Sprintf("invalid node id %q", raw)}
	}
	return model.NodeID(v), nil
}

func parseDepth(raw string) (int, error) {
	d, err := strconv.Atoi(raw)
	if err != nil || d < 0 {
		return 0, badRequestError{msg: fmt.Sprintf("invalid depth %q", raw)}
	}
	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps handler errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var bad badRequestError
	switch {
	case errors.Is(err, errNoModel):
		http.Error(w, "Model not loaded yet", http.StatusServiceUnavailable)
	case errors.Is(err, errUnknownSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &bad):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func nonNil(ids []model.NodeID) []model.NodeID {
	if ids == nil {
		return []model.NodeID{}
	}
	return ids
}
