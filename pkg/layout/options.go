package layout

import (
	"time"

	"github.com/ritzau/causegraph/pkg/curvature"
	"github.com/ritzau/causegraph/pkg/forces"
)

// Local view depth bounds.
const (
	MinDepth     = 1
	MaxDepth     = 6
	DefaultDepth = 2
)

// Placement positions interface-only nodes on an arc below their anchor.
// Angles are in degrees, y pointing down.
type Placement struct {
	RingRadius float64 `koanf:"radius" json:"ringRadius"`
	StartDeg   float64 `koanf:"start" json:"startDeg"`
	EndDeg     float64 `koanf:"end" json:"endDeg"`
	MarginDeg  float64 `koanf:"margin" json:"marginDeg"`
}

// Scaling sets the drawn size of nodes relative to NodeRadius.
type Scaling struct {
	NodeRadius        float64 `koanf:"radius" json:"nodeRadius"`
	RootScale         float64 `koanf:"root" json:"rootScale"`
	DepthDecay        float64 `koanf:"decay" json:"depthDecay"`
	FunctionRootScale float64 `koanf:"function" json:"functionRootScale"`
	InterfaceScale    float64 `koanf:"interface" json:"interfaceScale"`
}

// Options configures a Controller.
type Options struct {
	Forces    forces.Params
	Placement Placement
	Scaling   Scaling

	Depth          int
	SettleDuration time.Duration
	// JitterRadius bounds the random initial offset of tree nodes.
	JitterRadius float64
	// KickVelocity bounds the random initial velocity of interface nodes.
	KickVelocity  float64
	CurvatureBase float64

	FitDuration time.Duration
	FitPadding  float64

	// Seed for the jitter source. Zero picks a time based seed.
	Seed int64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		Forces: forces.DefaultParams(),
		Placement: Placement{
			RingRadius: 56,
			StartDeg:   210,
			EndDeg:     330,
			MarginDeg:  6,
		},
		Scaling: Scaling{
			NodeRadius:        10,
			RootScale:         2.0,
			DepthDecay:        0.85,
			FunctionRootScale: 1.35,
			InterfaceScale:    0.9,
		},
		Depth:          DefaultDepth,
		SettleDuration: time.Second,
		JitterRadius:   5,
		KickVelocity:   1.5,
		CurvatureBase:  curvature.DefaultBase,
		FitDuration:    200 * time.Millisecond,
		FitPadding:     120,
	}
}

// ClampDepth bounds d to [MinDepth, MaxDepth].
func ClampDepth(d int) int {
	return max(MinDepth, min(MaxDepth, d))
}
