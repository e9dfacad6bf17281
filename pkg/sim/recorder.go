package sim

import (
	"sync"
	"time"

	"github.com/ritzau/causegraph/pkg/model"
)

// Recorder is a Simulator that records calls instead of simulating.
// Positions are only ever changed by the test driving it.
type Recorder struct {
	mu sync.Mutex

	Scene         uint64
	Arena         *Arena
	Links         []model.Link
	Forces        Forces
	VelocityDecay float64
	AlphaTarget   float64
	CooldownTicks int

	GraphDataCalls int
	ConfigureCalls int
	Reheats        int
	ZoomCalls      int
	CenterCalls    int

	// Screen transform used by ScreenCoords: screen = K*p + offset.
	K, OffsetX, OffsetY float64
}

// NewRecorder creates a recorder with an identity screen transform.
func NewRecorder() *Recorder {
	return &Recorder{K: 1}
}

func (r *Recorder) SetGraphData(scene uint64, arena *Arena, links []model.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scene = scene
	r.Arena = arena
	r.Links = append([]model.Link(nil), links...)
	r.GraphDataCalls++
}

func (r *Recorder) ConfigureForces(f Forces) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Forces = f
	r.ConfigureCalls++
}

func (r *Recorder) SetVelocityDecay(decay float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.VelocityDecay = decay
}

func (r *Recorder) SetAlphaTarget(target float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AlphaTarget = target
}

func (r *Recorder) Reheat() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reheats++
}

func (r *Recorder) SetCooldownTicks(ticks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CooldownTicks = ticks
}

func (r *Recorder) ZoomToFit(d time.Duration, padding float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ZoomCalls++
}

func (r *Recorder) CenterAt(x, y float64, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CenterCalls++
}

func (r *Recorder) ScreenCoords(x, y float64) (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.K*x + r.OffsetX, r.K*y + r.OffsetY
}

// Settle moves every unpinned node of the current arena with fn, as if the
// engine had run to rest.
func (r *Recorder) Settle(fn func(n Node) Position) {
	r.mu.Lock()
	arena := r.Arena
	r.mu.Unlock()
	if arena == nil {
		return
	}

	var positions []NodePosition
	for _, n := range arena.Nodes() {
		p := fn(n)
		positions = append(positions, NodePosition{ID: n.ID, X: p.X, Y: p.Y})
	}
	arena.ApplyPositions(positions)
}
