// Package forces maps a layout phase to concrete force settings.
package forces

import (
	"errors"
	"fmt"

	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/sim"
)

// Phase is a stage of a scene's layout.
type Phase int

const (
	// SettleTree lays out the hierarchy with boosted tree forces.
	SettleTree Phase = iota
	// WithInterface reintroduces interface links around a pinned hierarchy.
	WithInterface
)

func (p Phase) String() string {
	switch p {
	case SettleTree:
		return "settleTree"
	case WithInterface:
		return "withInterface"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// EdgeParams are the base force values of one relation kind.
type EdgeParams struct {
	LinkDistance float64 `koanf:"distance" json:"linkDistance"`
	LinkStrength float64 `koanf:"strength" json:"linkStrength"`
	Charge       float64 `koanf:"charge" json:"charge"`
}

// Params configures every force of both phases.
type Params struct {
	Tree      EdgeParams `koanf:"tree" json:"tree"`
	Interface EdgeParams `koanf:"interface" json:"interface"`

	// BoostFactor multiplies tree link strength and tree charge while settling.
	BoostFactor float64 `koanf:"boost" json:"boostFactor"`
	// SettleInterfaceStrength is the strength of interface links while settling.
	SettleInterfaceStrength float64 `koanf:"settleinterface" json:"settleInterfaceStrength"`

	CollideRadius     float64 `koanf:"collideradius" json:"collideRadius"`
	CollideStrength   float64 `koanf:"collidestrength" json:"collideStrength"`
	CollideIterations int     `koanf:"collideiterations" json:"collideIterations"`

	ChargeDistanceMin float64 `koanf:"chargemin" json:"chargeDistanceMin"`
	ChargeDistanceMax float64 `koanf:"chargemax" json:"chargeDistanceMax"`

	VelocityDecay float64 `koanf:"decay" json:"velocityDecay"`
	AlphaTarget   float64 `koanf:"alpha" json:"alphaTarget"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Tree:                    EdgeParams{LinkDistance: 55, LinkStrength: 0.9, Charge: -1},
		Interface:               EdgeParams{LinkDistance: 5, LinkStrength: 0.35, Charge: -700},
		BoostFactor:             1.8,
		SettleInterfaceStrength: 0.05,
		CollideRadius:           18,
		CollideStrength:         1.0,
		CollideIterations:       2,
		ChargeDistanceMin:       1,
		ChargeDistanceMax:       2000,
		VelocityDecay:           0.25,
		AlphaTarget:             0.7,
	}
}

// Validate rejects settings no phase could run with.
func (p Params) Validate() error {
	var errs []error
	if p.Tree.LinkDistance <= 0 || p.Interface.LinkDistance <= 0 {
		errs = append(errs, errors.New("link distances must be positive"))
	}
	if p.BoostFactor <= 0 {
		errs = append(errs, fmt.Errorf("boost factor must be positive, got %v", p.BoostFactor))
	}
	if p.ChargeDistanceMin < 0 || p.ChargeDistanceMax < p.ChargeDistanceMin {
		errs = append(errs, fmt.Errorf("invalid charge distance range [%v, %v]", p.ChargeDistanceMin, p.ChargeDistanceMax))
	}
	if p.CollideIterations < 0 {
		errs = append(errs, fmt.Errorf("collide iterations must not be negative, got %d", p.CollideIterations))
	}
	if p.VelocityDecay < 0 || p.VelocityDecay > 1 {
		errs = append(errs, fmt.Errorf("velocity decay must be in [0, 1], got %v", p.VelocityDecay))
	}
	return errors.Join(errs...)
}

// LinkDistance is the rest length of l.
func (p Params) LinkDistance(l model.Link) float64 {
	if l.Kind == model.Interface {
		return p.Interface.LinkDistance
	}
	return p.Tree.LinkDistance
}

// LinkStrength is the stiffness of l in phase.
func (p Params) LinkStrength(phase Phase, l model.Link) float64 {
	if phase == SettleTree {
		if l.Kind == model.Interface {
			return p.SettleInterfaceStrength
		}
		return p.Tree.LinkStrength * p.BoostFactor
	}
	if l.Kind == model.Interface {
		return p.Interface.LinkStrength
	}
	return p.Tree.LinkStrength
}

// Charge is the many-body strength of n in phase.
func (p Params) Charge(phase Phase, n sim.Node) float64 {
	if !n.Tree {
		return p.Interface.Charge
	}
	if phase == SettleTree {
		return p.Tree.Charge * p.BoostFactor
	}
	return p.Tree.Charge
}

// CollideRadiusOf is the collision radius of n while settling.
func (p Params) CollideRadiusOf(n sim.Node) float64 {
	if !n.Tree {
		return 0
	}
	scale := n.Scale
	if scale <= 0 {
		scale = 1
	}
	return p.CollideRadius * scale
}

// Build returns the force configuration for phase over links.
func (p Params) Build(phase Phase, links []model.Link) sim.Forces {
	f := sim.Forces{
		Link: sim.LinkForce{
			Links:    links,
			Distance: p.LinkDistance,
			Strength: func(l model.Link) float64 { return p.LinkStrength(phase, l) },
		},
		Charge: sim.ChargeForce{
			Strength:    func(n sim.Node) float64 { return p.Charge(phase, n) },
			DistanceMin: p.ChargeDistanceMin,
			DistanceMax: p.ChargeDistanceMax,
		},
	}
	if phase == SettleTree {
		f.Collide = &sim.CollideForce{
			Radius:     p.CollideRadiusOf,
			Strength:   p.CollideStrength,
			Iterations: p.CollideIterations,
		}
	}
	return f
}

// Apply configures s for phase. The link force is always rebound to links,
// so stale link lists never survive a phase change, and the simulation is
// reheated.
func Apply(s sim.Simulator, p Params, phase Phase, links []model.Link) {
	s.ConfigureForces(p.Build(phase, links))
	s.SetVelocityDecay(p.VelocityDecay)
	s.SetAlphaTarget(p.AlphaTarget)
	s.Reheat()
}
