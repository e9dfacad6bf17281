package bridge

import (
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/sim"
)

// WireNode is a node as sent to the engine. FX/FY are only set for pinned
// nodes; X/Y are omitted for nodes the engine should place itself.
type WireNode struct {
	ID    model.NodeID `json:"id"`
	X     *float64     `json:"x,omitempty"`
	Y     *float64     `json:"y,omitempty"`
	VX    float64      `json:"vx"`
	VY    float64      `json:"vy"`
	FX    *float64     `json:"fx,omitempty"`
	FY    *float64     `json:"fy,omitempty"`
	Tree  bool         `json:"tree"`
	Scale float64      `json:"scale"`
}

// WireLink is a link as sent to the engine.
type WireLink struct {
	Source   model.NodeID       `json:"source"`
	Target   model.NodeID       `json:"target"`
	Relation string             `json:"relation"`
	Kind     model.RelationKind `json:"kind"`
	Key      string             `json:"key"`
}

// GraphData is the payload of CmdGraphData.
type GraphData struct {
	Scene uint64     `json:"scene"`
	Nodes []WireNode `json:"nodes"`
	Links []WireLink `json:"links"`
}

// LinkParams are the evaluated link force parameters of one link, aligned
// with GraphData.Links.
type LinkParams struct {
	Key      string  `json:"key"`
	Distance float64 `json:"distance"`
	Strength float64 `json:"strength"`
}

// NodeParams are the evaluated per-node force parameters.
type NodeParams struct {
	ID            model.NodeID `json:"id"`
	Charge        float64      `json:"charge"`
	CollideRadius float64      `json:"collideRadius,omitempty"`
}

// CollideParams is present while collision is enabled.
type CollideParams struct {
	Strength   float64 `json:"strength"`
	Iterations int     `json:"iterations"`
}

// ForceData is the payload of CmdForces.
type ForceData struct {
	Scene       uint64         `json:"scene"`
	Links       []LinkParams   `json:"links"`
	Nodes       []NodeParams   `json:"nodes"`
	DistanceMin float64        `json:"distanceMin"`
	DistanceMax float64        `json:"distanceMax"`
	Collide     *CollideParams `json:"collide,omitempty"`
}

type sceneCommand struct {
	Scene uint64 `json:"scene"`
}

type valueCommand struct {
	Scene uint64  `json:"scene"`
	Value float64 `json:"value"`
}

type cooldownCommand struct {
	Scene uint64 `json:"scene"`
	Ticks int    `json:"ticks"`
}

type zoomCommand struct {
	Scene      uint64  `json:"scene"`
	DurationMs int64   `json:"durationMs"`
	Padding    float64 `json:"padding"`
}

type centerCommand struct {
	Scene      uint64  `json:"scene"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	DurationMs int64   `json:"durationMs"`
}

func newGraphData(scene uint64, arena *sim.Arena, links []model.Link) GraphData {
	gd := GraphData{
		Scene: scene,
		Nodes: make([]WireNode, 0),
		Links: make([]WireLink, 0, len(links)),
	}
	if arena != nil {
		for _, n := range arena.Nodes() {
			wn := WireNode{ID: n.ID, VX: n.VX, VY: n.VY, Tree: n.Tree, Scale: n.Scale}
			if n.Placed {
				x, y := n.X, n.Y
				wn.X, wn.Y = &x, &y
			}
			if n.Pinned {
				fx, fy := n.FX, n.FY
				wn.FX, wn.FY = &fx, &fy
			}
			gd.Nodes = append(gd.Nodes, wn)
		}
	}
	for _, l := range links {
		gd.Links = append(gd.Links, WireLink{
			Source:   l.Source,
			Target:   l.Target,
			Relation: l.Relation,
			Kind:     l.Kind,
			Key:      l.Key(),
		})
	}
	return gd
}

// evaluateForces turns the force functions into plain per-link and per-node
// values for the wire.
func evaluateForces(scene uint64, arena *sim.Arena, f sim.Forces) ForceData {
	fd := ForceData{
		Scene:       scene,
		Links:       make([]LinkParams, 0, len(f.Link.Links)),
		Nodes:       make([]NodeParams, 0),
		DistanceMin: f.Charge.DistanceMin,
		DistanceMax: f.Charge.DistanceMax,
	}

	for _, l := range f.Link.Links {
		lp := LinkParams{Key: l.Key()}
		if f.Link.Distance != nil {
			lp.Distance = f.Link.Distance(l)
		}
		if f.Link.Strength != nil {
			lp.Strength = f.Link.Strength(l)
		}
		fd.Links = append(fd.Links, lp)
	}

	if f.Collide != nil {
		fd.Collide = &CollideParams{Strength: f.Collide.Strength, Iterations: f.Collide.Iterations}
	}

	if arena == nil {
		return fd
	}
	for _, n := range arena.Nodes() {
		np := NodeParams{ID: n.ID}
		if f.Charge.Strength != nil {
			np.Charge = f.Charge.Strength(n)
		}
		if f.Collide != nil && f.Collide.Radius != nil {
			np.CollideRadius = f.Collide.Radius(n)
		}
		fd.Nodes = append(fd.Nodes, np)
	}
	return fd
}
