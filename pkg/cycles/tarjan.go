package cycles

import (
	"slices"

	"github.com/ritzau/causegraph/pkg/model"
	"gonum.org/v1/gonum/graph"
)

// TarjanSCC finds the strongly connected components of a directed graph.
type TarjanSCC struct {
	graph   graph.Directed
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]model.NodeID
}

// NewTarjanSCC creates a new Tarjan SCC finder
func NewTarjanSCC(g graph.Directed) *TarjanSCC {
	return &TarjanSCC{
		graph:   g,
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
	}
}

// FindSCCs returns every component with more than one node. Members are
// sorted by id and components by their smallest member, so the result does
// not depend on gonum's map iteration order.
func (t *TarjanSCC) FindSCCs() [][]model.NodeID {
	nodes := graph.NodesOf(t.graph.Nodes())
	slices.SortFunc(nodes, func(a, b graph.Node) int {
		return compareIDs(a.ID(), b.ID())
	})

	for _, node := range nodes {
		if _, visited := t.indices[node.ID()]; !visited {
			t.strongConnect(node.ID())
		}
	}

	slices.SortFunc(t.sccs, func(a, b []model.NodeID) int {
		return compareIDs(int64(a[0]), int64(b[0]))
	})
	return t.sccs
}

func (t *TarjanSCC) strongConnect(nodeID int64) {
	t.indices[nodeID] = t.index
	t.lowLink[nodeID] = t.index
	t.index++

	t.stack = append(t.stack, nodeID)
	t.onStack[nodeID] = true

	successors := t.graph.From(nodeID)
	for successors.Next() {
		successorID := successors.Node().ID()

		if _, visited := t.indices[successorID]; !visited {
			t.strongConnect(successorID)
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.lowLink[successorID])
		} else if t.onStack[successorID] {
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.indices[successorID])
		}
	}

	// nodeID is the root of a component: pop it
	if t.lowLink[nodeID] != t.indices[nodeID] {
		return
	}
	var scc []model.NodeID
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, model.NodeID(w))
		if w == nodeID {
			break
		}
	}
	if len(scc) > 1 {
		slices.Sort(scc)
		t.sccs = append(t.sccs, scc)
	}
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
