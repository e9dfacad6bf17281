package layout

import (
	"math"

	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/sim"
)

// Angles returns n evenly spaced angles in degrees inside the margins of the
// arc. A single node sits at the midpoint.
func (p Placement) Angles(n int) []float64 {
	if n <= 0 {
		return nil
	}
	start := p.StartDeg + p.MarginDeg
	end := p.EndDeg - p.MarginDeg
	if n == 1 {
		return []float64{(start + end) / 2}
	}

	step := (end - start) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// Offset is the position at angle deg on the ring around (0, 0).
func (p Placement) Offset(deg float64) sim.Position {
	rad := deg * math.Pi / 180
	return sim.Position{
		X: p.RingRadius * math.Cos(rad),
		Y: p.RingRadius * math.Sin(rad),
	}
}

// anchorOf is the first interface neighbor of id that belongs to the tree.
func anchorOf(m *model.Model, id model.NodeID, treeSet map[model.NodeID]bool) (model.NodeID, bool) {
	for _, nb := range m.IfaceAdj[id] {
		if treeSet[nb] {
			return nb, true
		}
	}
	return 0, false
}

// seedInterfaceNodes places interface-only nodes on an arc around their tree
// anchor. Nodes sharing an anchor spread across the arc; nodes without one
// are left to the simulator.
func (c *Controller) seedInterfaceNodes(arena *sim.Arena, extra []model.NodeID, fixed map[model.NodeID]sim.Position, treeSet map[model.NodeID]bool) {
	var anchors []model.NodeID
	buckets := make(map[model.NodeID][]model.NodeID)

	for _, id := range extra {
		anchor, ok := anchorOf(c.model, id, treeSet)
		if !ok {
			arena.Update(id, func(n *sim.Node) {
				n.Placed = false
			})
			continue
		}
		if _, seen := buckets[anchor]; !seen {
			anchors = append(anchors, anchor)
		}
		buckets[anchor] = append(buckets[anchor], id)
	}

	for _, anchor := range anchors {
		members := buckets[anchor]
		center := fixed[anchor]
		for i, deg := range c.opts.Placement.Angles(len(members)) {
			off := c.opts.Placement.Offset(deg)
			x, y := center.X+off.X, center.Y+off.Y
			arena.Update(members[i], func(n *sim.Node) {
				n.X, n.Y = x, y
				n.VX, n.VY = 0, 0
				n.Placed = true
			})
		}
	}
}
