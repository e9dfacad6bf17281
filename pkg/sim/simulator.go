// Package sim defines the contract between the layout controller and the
// physics integrator that moves nodes, plus the shared position arena.
package sim

import (
	"math"
	"time"

	"github.com/ritzau/causegraph/pkg/model"
)

// FrameDuration is the nominal length of one simulation tick.
const FrameDuration = 16 * time.Millisecond

// Ticks converts a duration to a cooldown tick count, at least 1.
func Ticks(d time.Duration) int {
	ticks := int(math.Round(float64(d) / float64(FrameDuration)))
	return max(1, ticks)
}

// LinkForce pulls linked nodes toward a rest distance.
type LinkForce struct {
	Links    []model.Link
	Distance func(l model.Link) float64
	Strength func(l model.Link) float64
}

// ChargeForce is the many-body force. Negative strengths repel.
type ChargeForce struct {
	Strength    func(n Node) float64
	DistanceMin float64
	DistanceMax float64
}

// CollideForce keeps nodes at least Radius apart.
type CollideForce struct {
	Radius     func(n Node) float64
	Strength   float64
	Iterations int
}

// Forces is the complete force configuration of one phase.
// A nil Collide disables collision.
type Forces struct {
	Link    LinkForce
	Charge  ChargeForce
	Collide *CollideForce
}

// Simulator is the physics integrator driving a layout. Implementations
// report an engine stop back to the controller with the scene id they were
// given in SetGraphData.
type Simulator interface {
	// SetGraphData replaces the simulated nodes and links for scene.
	SetGraphData(scene uint64, arena *Arena, links []model.Link)
	ConfigureForces(f Forces)
	SetVelocityDecay(decay float64)
	SetAlphaTarget(target float64)
	Reheat()
	SetCooldownTicks(ticks int)
	ZoomToFit(d time.Duration, padding float64)
	CenterAt(x, y float64, d time.Duration)
	// ScreenCoords projects a layout position onto the screen.
	ScreenCoords(x, y float64) (float64, float64)
}
