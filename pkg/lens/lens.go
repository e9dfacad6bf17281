// Package lens extracts the bounded subgraphs ("cores") that a view lays out:
// the global forest under a set of seeds, or the neighborhood of one root.
package lens

import "github.com/ritzau/causegraph/pkg/model"

// Core is the hierarchy skeleton of a view.
type Core struct {
	// Nodes in model order.
	Nodes []model.NodeID `json:"nodes"`
	// Child links with both endpoints in Nodes, in model order.
	Links []model.Link `json:"links"`
	// Downstream hop count from the root. Nil for forest cores.
	DepthByID map[model.NodeID]int `json:"depthById,omitempty"`
}

// Contains reports whether id is part of the core.
func (c Core) Contains(id model.NodeID) bool {
	for _, n := range c.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// Set returns the core's node ids as a set.
func (c Core) Set() map[model.NodeID]bool {
	set := make(map[model.NodeID]bool, len(c.Nodes))
	for _, id := range c.Nodes {
		set[id] = true
	}
	return set
}

func newCore(m *model.Model, members map[model.NodeID]bool) Core {
	core := Core{
		Nodes: make([]model.NodeID, 0, len(members)),
		Links: make([]model.Link, 0),
	}
	for _, n := range m.Nodes {
		if members[n.ID] {
			core.Nodes = append(core.Nodes, n.ID)
		}
	}
	for _, l := range m.ChildLinks {
		if members[l.Source] && members[l.Target] {
			core.Links = append(core.Links, l)
		}
	}
	return core
}
