package graph

import (
	"github.com/ritzau/causegraph/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// HierarchyGraph is the child_of structure of a model as a gonum directed
// graph. Graph ids are the model's node ids.
type HierarchyGraph struct {
	graph     *simple.DirectedGraph
	model     *model.Model
	selfLoops []model.NodeID
}

// NewHierarchyGraph creates an empty hierarchy graph over m.
func NewHierarchyGraph(m *model.Model) *HierarchyGraph {
	return &HierarchyGraph{
		graph: simple.NewDirectedGraph(),
		model: m,
	}
}

// BuildHierarchyGraph adds every node and child link of m.
func BuildHierarchyGraph(m *model.Model) *HierarchyGraph {
	hg := NewHierarchyGraph(m)
	for _, n := range m.Nodes {
		hg.AddNode(n.ID)
	}
	for _, l := range m.ChildLinks {
		hg.AddChild(l.Source, l.Target)
	}
	return hg
}

// AddNode adds a node if it is not present yet.
func (hg *HierarchyGraph) AddNode(id model.NodeID) {
	if hg.graph.Node(int64(id)) != nil {
		return
	}
	hg.graph.AddNode(simple.Node(int64(id)))
}

// AddChild adds a parent -> child edge. Self loops are recorded separately
// since gonum's simple graphs reject them.
func (hg *HierarchyGraph) AddChild(parent, child model.NodeID) {
	hg.AddNode(parent)
	hg.AddNode(child)

	if parent == child {
		for _, id := range hg.selfLoops {
			if id == parent {
				return
			}
		}
		hg.selfLoops = append(hg.selfLoops, parent)
		return
	}

	from, to := int64(parent), int64(child)
	if !hg.graph.HasEdgeFromTo(from, to) {
		hg.graph.SetEdge(hg.graph.NewEdge(hg.graph.Node(from), hg.graph.Node(to)))
	}
}

// Graph returns the underlying directed graph
func (hg *HierarchyGraph) Graph() *simple.DirectedGraph {
	return hg.graph
}

// Model returns the model the graph was built from, if any.
func (hg *HierarchyGraph) Model() *model.Model {
	return hg.model
}

// SelfLoops returns nodes that are their own parent.
func (hg *HierarchyGraph) SelfLoops() []model.NodeID {
	return hg.selfLoops
}

// Children returns the direct children of id in graph order.
func (hg *HierarchyGraph) Children(id model.NodeID) []model.NodeID {
	if hg.graph.Node(int64(id)) == nil {
		return nil
	}

	var children []model.NodeID
	iter := hg.graph.From(int64(id))
	for iter.Next() {
		children = append(children, model.NodeID(iter.Node().ID()))
	}
	return children
}

// EdgeCount returns the number of distinct parent -> child edges, excluding
// self loops.
func (hg *HierarchyGraph) EdgeCount() int {
	return hg.graph.Edges().Len()
}
