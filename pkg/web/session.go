package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ritzau/causegraph/pkg/bridge"
	"github.com/ritzau/causegraph/pkg/layout"
	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/pubsub"
)

var errUnknownSession = errors.New("unknown session")

// session is one browser view: a controller driving a remote engine through
// a bridge. All controller calls happen under mu.
type session struct {
	id         string
	mu         sync.Mutex
	controller *layout.Controller
	bridge     *bridge.Bridge
}

func newSession(id string, m *model.Model, opts layout.Options, pub bridge.Publisher) *session {
	sess := &session{
		id:         id,
		controller: layout.NewController(m, opts),
		bridge:     bridge.New(pub, id),
	}
	// Called from HandleReport, which runs with sess.mu held
	sess.bridge.OnStop(func(scene uint64) bool {
		return sess.controller.HandleEngineStop(scene)
	})
	sess.controller.Attach(sess.bridge)
	return sess
}

// SessionInfo describes a created session.
type SessionInfo struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
	Scene uint64 `json:"scene"`
}

// SceneResponse is returned by calls that may start a scene. Scene is 0 when
// nothing was started.
type SceneResponse struct {
	Scene uint64      `json:"scene"`
	View  layout.View `json:"view"`
}

// EngineStopResponse reports the outcome of an engine-stop report.
type EngineStopResponse struct {
	Scene        uint64 `json:"scene"`
	Transitioned bool   `json:"transitioned"`
}

func (s *Server) lookupSession(r *http.Request) (*session, error) {
	sid := mux.Vars(r)["sid"]
	s.mu.RLock()
	sess, ok := s.sessions[sid]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownSession, sid)
	}
	return sess, nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	m, _, err := s.currentModel()
	if err != nil {
		writeError(w, err)
		return
	}

	id := uuid.NewString()
	topic := pubsub.SessionTopic(id)
	s.publisher.ConfigureTopic(topic, sessionTopicConfig)

	sess := newSession(id, m, s.opts, s.publisher)
	sess.mu.Lock()
	sess.controller.Start()
	sess.mu.Unlock()

	scene := s.register(sess)

	logging.InfoContext(r.Context(), "session created", "session", id, "scene", scene)
	writeJSON(w, http.StatusCreated, SessionInfo{ID: id, Topic: topic, Scene: scene})
}

// register adds sess to the open sessions and catches it up with a model
// installed while it was being built. It returns the id of the scene sess
// ends up showing.
func (s *Server) register(sess *session) uint64 {
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return s.syncSession(sess)
}

// syncSession moves sess onto the current model and starts over in the
// global view. The model is read with sess.mu held, so whichever sync runs
// last leaves the session on the latest model. Scene ids keep increasing
// across the switch and reports for the previous model are dropped.
func (s *Server) syncSession(sess *session) uint64 {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.mu.RLock()
	m := s.model
	s.mu.RUnlock()

	if m != nil && sess.controller.Model() != m {
		scene := sess.controller.SetModel(m)
		logging.Debug("session restarted on new model", "session", sess.id, "scene", scene)
	}
	scene, _ := sess.controller.Scene()
	return scene.ID
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	s.mu.Lock()
	sess, ok := s.sessions[sid]
	delete(s.sessions, sid)
	s.mu.Unlock()
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", errUnknownSession, sid))
		return
	}

	sess.mu.Lock()
	sess.controller.Detach()
	sess.mu.Unlock()
	s.publisher.DropTopic(pubsub.SessionTopic(sid))

	logging.InfoContext(r.Context(), "session closed", "session", sid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	view := sess.controller.CurrentView()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSelectRoot(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	root, err := parseNodeID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		if depth, err = parseDepth(raw); err != nil {
			writeError(w, err)
			return
		}
	}

	s.sceneCall(w, sess, func(c *layout.Controller) uint64 {
		return c.SelectRoot(root, depth)
	})
}

func (s *Server) handleGlobal(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.sceneCall(w, sess, (*layout.Controller).ReturnToGlobal)
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	depth, err := parseDepth(mux.Vars(r)["depth"])
	if err != nil {
		writeError(w, err)
		return
	}

	s.sceneCall(w, sess, func(c *layout.Controller) uint64 {
		return c.SetDepth(depth)
	})
}

// sceneCall runs fn on the session controller and answers with the new view.
func (s *Server) sceneCall(w http.ResponseWriter, sess *session, fn func(*layout.Controller) uint64) {
	sess.mu.Lock()
	scene := fn(sess.controller)
	view := sess.controller.CurrentView()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, SceneResponse{Scene: scene, View: view})
}

func (s *Server) handleEngineStop(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var report bridge.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeError(w, badRequestError{msg: fmt.Sprintf("invalid engine-stop report: %v", err)})
		return
	}

	sess.mu.Lock()
	transitioned := sess.bridge.HandleReport(report)
	scene, _ := sess.controller.Scene()
	sess.mu.Unlock()

	logging.DebugContext(r.Context(), "engine stop reported",
		"scene", report.Scene,
		"current", scene.ID,
		"transitioned", transitioned,
	)
	writeJSON(w, http.StatusOK, EngineStopResponse{Scene: scene.ID, Transitioned: transitioned})
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookupSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := parseNodeID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	x, y, ok := sess.controller.ScreenPosition(id)
	sess.mu.Unlock()
	if !ok {
		http.Error(w, fmt.Sprintf("node %d is not in the scene", id), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"x": x, "y": y})
}
