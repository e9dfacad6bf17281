// Package bridge drives a force engine running in a browser. Simulator calls
// become events on the session's pubsub topic and engine-stop reports come
// back over HTTP.
package bridge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/pubsub"
	"github.com/ritzau/causegraph/pkg/sim"
)

// Command event types
const (
	CmdGraphData     = "graph_data"
	CmdForces        = "forces"
	CmdVelocityDecay = "velocity_decay"
	CmdAlphaTarget   = "alpha_target"
	CmdReheat        = "reheat"
	CmdCooldown      = "cooldown"
	CmdZoomToFit     = "zoom_to_fit"
	CmdCenterAt      = "center_at"
)

// Publisher is the part of pubsub.Publisher the bridge needs.
type Publisher interface {
	Publish(topic string, eventType string, data interface{}) error
}

// Camera is the screen transform of the remote view: screen = K*p + (X, Y).
type Camera struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Report is what the engine sends when it comes to rest.
type Report struct {
	Scene     uint64             `json:"scene"`
	Positions []sim.NodePosition `json:"positions"`
	Camera    *Camera            `json:"camera,omitempty"`
}

// StopFunc is told about an engine stop once the reported positions are in
// the arena. It reports whether the stop changed the layout phase.
type StopFunc func(scene uint64) bool

// Bridge implements sim.Simulator for one view session.
type Bridge struct {
	mu     sync.Mutex
	topic  string
	pub    Publisher
	log    *slog.Logger
	scene  uint64
	arena  *sim.Arena
	links  []model.Link
	camera Camera
	onStop StopFunc
}

var _ sim.Simulator = (*Bridge)(nil)

// New creates a bridge publishing on the topic of sessionID.
func New(pub Publisher, sessionID string) *Bridge {
	return &Bridge{
		topic:  pubsub.SessionTopic(sessionID),
		pub:    pub,
		log:    logging.New("bridge").With("session", sessionID),
		camera: Camera{K: 1},
	}
}

// Topic returns the pubsub topic commands are published on.
func (b *Bridge) Topic() string {
	return b.topic
}

// OnStop sets the engine-stop callback.
func (b *Bridge) OnStop(fn StopFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStop = fn
}

// Scene returns the id of the last scene handed to the engine.
func (b *Bridge) Scene() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scene
}

// Camera returns the last reported screen transform.
func (b *Bridge) Camera() Camera {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.camera
}

func (b *Bridge) publish(eventType string, data interface{}) {
	if err := b.pub.Publish(b.topic, eventType, data); err != nil {
		b.log.Warn("failed to publish simulator command", "type", eventType, "error", err)
		return
	}
	logging.Trace("simulator command published", "topic", b.topic, "type", eventType)
}

func (b *Bridge) SetGraphData(scene uint64, arena *sim.Arena, links []model.Link) {
	b.mu.Lock()
	b.scene = scene
	b.arena = arena
	b.links = append([]model.Link(nil), links...)
	b.mu.Unlock()

	b.publish(CmdGraphData, newGraphData(scene, arena, links))
}

func (b *Bridge) ConfigureForces(f sim.Forces) {
	b.mu.Lock()
	scene, arena := b.scene, b.arena
	b.mu.Unlock()

	b.publish(CmdForces, evaluateForces(scene, arena, f))
}

func (b *Bridge) SetVelocityDecay(decay float64) {
	b.publish(CmdVelocityDecay, valueCommand{Scene: b.Scene(), Value: decay})
}

func (b *Bridge) SetAlphaTarget(target float64) {
	b.publish(CmdAlphaTarget, valueCommand{Scene: b.Scene(), Value: target})
}

func (b *Bridge) Reheat() {
	b.publish(CmdReheat, sceneCommand{Scene: b.Scene()})
}

func (b *Bridge) SetCooldownTicks(ticks int) {
	b.publish(CmdCooldown, cooldownCommand{Scene: b.Scene(), Ticks: ticks})
}

func (b *Bridge) ZoomToFit(d time.Duration, padding float64) {
	b.publish(CmdZoomToFit, zoomCommand{Scene: b.Scene(), DurationMs: d.Milliseconds(), Padding: padding})
}

func (b *Bridge) CenterAt(x, y float64, d time.Duration) {
	b.publish(CmdCenterAt, centerCommand{Scene: b.Scene(), X: x, Y: y, DurationMs: d.Milliseconds()})
}

// ScreenCoords projects through the last reported camera.
func (b *Bridge) ScreenCoords(x, y float64) (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.camera.K*x + b.camera.X, b.camera.K*y + b.camera.Y
}

// HandleReport applies an engine-stop report. Positions land in the arena in
// one step before the stop callback runs. Reports for any scene other than
// the current one are ignored. It returns whether the callback changed the
// layout phase.
func (b *Bridge) HandleReport(r Report) bool {
	b.mu.Lock()
	if r.Camera != nil && r.Camera.K > 0 {
		b.camera = *r.Camera
	}
	if r.Scene != b.scene || b.arena == nil {
		current := b.scene
		b.mu.Unlock()
		b.log.Debug("ignoring report of stale scene", "scene", r.Scene, "current", current)
		return false
	}
	arena, onStop := b.arena, b.onStop
	b.mu.Unlock()

	moved := arena.ApplyPositions(r.Positions)
	b.log.Debug("engine stopped", "scene", r.Scene, "moved", moved, "reported", len(r.Positions))

	if onStop == nil {
		return false
	}
	return onStop(r.Scene)
}
