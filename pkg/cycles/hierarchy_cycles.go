package cycles

import (
	"github.com/ritzau/causegraph/pkg/graph"
	"github.com/ritzau/causegraph/pkg/model"
)

// HierarchyCycle is a set of nodes that are (transitively) their own parents.
type HierarchyCycle struct {
	Nodes []model.NodeID `json:"nodes"`
}

// FindHierarchyCycles reports cycles in the child_of structure of m,
// including nodes that list themselves as parent.
func FindHierarchyCycles(m *model.Model) []HierarchyCycle {
	return FindCycles(graph.BuildHierarchyGraph(m))
}

// FindCycles reports the cycles of an already built hierarchy graph.
func FindCycles(hg *graph.HierarchyGraph) []HierarchyCycle {
	cycles := make([]HierarchyCycle, 0)

	for _, id := range hg.SelfLoops() {
		cycles = append(cycles, HierarchyCycle{Nodes: []model.NodeID{id}})
	}

	tarjan := NewTarjanSCC(hg.Graph())
	for _, scc := range tarjan.FindSCCs() {
		cycles = append(cycles, HierarchyCycle{Nodes: scc})
	}

	return cycles
}
