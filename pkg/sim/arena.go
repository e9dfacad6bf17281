package sim

import (
	"sync"

	"github.com/ritzau/causegraph/pkg/model"
)

// Position is a point in layout space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodePosition is a positioned node id, as reported by a simulator.
type NodePosition struct {
	ID model.NodeID `json:"id"`
	X  float64      `json:"x"`
	Y  float64      `json:"y"`
}

// Node is one slot of the arena.
type Node struct {
	ID     model.NodeID
	X, Y   float64
	VX, VY float64

	// Pinned nodes are held at (FX, FY); simulator moves are ignored.
	Pinned bool
	FX, FY float64

	// Tree marks hierarchy nodes, as opposed to nodes that are only present
	// as interface endpoints.
	Tree bool
	// Scale multiplies the drawn radius and the collision radius.
	Scale float64
	// Placed is false for nodes whose position is left to the simulator.
	Placed bool
}

// Arena is the position store shared between a layout controller and its
// simulator. Slots are addressed by a stable index for the life of a scene.
type Arena struct {
	mu    sync.RWMutex
	slots []Node
	index map[model.NodeID]int
}

// NewArena creates one slot per id, in order. Repeated ids share a slot.
func NewArena(ids []model.NodeID) *Arena {
	a := &Arena{
		slots: make([]Node, 0, len(ids)),
		index: make(map[model.NodeID]int, len(ids)),
	}
	for _, id := range ids {
		if _, ok := a.index[id]; ok {
			continue
		}
		a.index[id] = len(a.slots)
		a.slots = append(a.slots, Node{ID: id, Scale: 1, Placed: true})
	}
	return a
}

// Len returns the number of slots.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slots)
}

// Index returns the slot index of id.
func (a *Arena) Index(id model.NodeID) (int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.index[id]
	return i, ok
}

// Get returns a copy of the slot for id.
func (a *Arena) Get(id model.NodeID) (Node, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.index[id]
	if !ok {
		return Node{}, false
	}
	return a.slots[i], true
}

// Nodes returns a copy of all slots in index order.
func (a *Arena) Nodes() []Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Node, len(a.slots))
	copy(out, a.slots)
	return out
}

// IDs returns the node ids in index order.
func (a *Arena) IDs() []model.NodeID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.NodeID, len(a.slots))
	for i, n := range a.slots {
		out[i] = n.ID
	}
	return out
}

// Update applies fn to the slot of id. It is the controller's write path and
// ignores pins.
func (a *Arena) Update(id model.NodeID, fn func(n *Node)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.index[id]
	if !ok {
		return false
	}
	fn(&a.slots[i])
	return true
}

// Pin holds id at (x, y) and clears its velocity.
func (a *Arena) Pin(id model.NodeID, x, y float64) bool {
	return a.Update(id, func(n *Node) {
		n.Pinned = true
		n.FX, n.FY = x, y
		n.X, n.Y = x, y
		n.VX, n.VY = 0, 0
		n.Placed = true
	})
}

// Unpin releases id; its position is kept.
func (a *Arena) Unpin(id model.NodeID) bool {
	return a.Update(id, func(n *Node) {
		n.Pinned = false
	})
}

// Move is the simulator's write path. Pinned slots are not moved.
func (a *Arena) Move(id model.NodeID, x, y float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.moveLocked(id, x, y)
}

// ApplyPositions moves every reported node in one critical section, so a
// reader never sees half of a tick. It returns the number of slots moved.
func (a *Arena) ApplyPositions(positions []NodePosition) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	moved := 0
	for _, p := range positions {
		if a.moveLocked(p.ID, p.X, p.Y) {
			moved++
		}
	}
	return moved
}

func (a *Arena) moveLocked(id model.NodeID, x, y float64) bool {
	i, ok := a.index[id]
	if !ok || a.slots[i].Pinned {
		return false
	}
	a.slots[i].X, a.slots[i].Y = x, y
	a.slots[i].Placed = true
	return true
}

// Positions returns the current position of every slot in index order.
func (a *Arena) Positions() []NodePosition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]NodePosition, len(a.slots))
	for i, n := range a.slots {
		out[i] = NodePosition{ID: n.ID, X: n.X, Y: n.Y}
	}
	return out
}
