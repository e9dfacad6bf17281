package cycles

import (
	"testing"

	"github.com/ritzau/causegraph/pkg/graph"
	"github.com/ritzau/causegraph/pkg/model"
)

func TestFindCycles_NoCycles(t *testing.T) {
	hg := graph.NewHierarchyGraph(nil)

	// A simple chain: 1 -> 2 -> 3
	hg.AddChild(1, 2)
	hg.AddChild(2, 3)

	cycles := FindCycles(hg)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(cycles))
	}
}

func TestFindCycles_SimpleCycle(t *testing.T) {
	hg := graph.NewHierarchyGraph(nil)

	hg.AddChild(2, 1)
	hg.AddChild(1, 2)

	cycles := FindCycles(hg)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}

	got := cycles[0].Nodes
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected sorted cycle [1 2], got %v", got)
	}
}

func TestFindCycles_MultipleCycles(t *testing.T) {
	hg := graph.NewHierarchyGraph(nil)

	// Cycle 1: 7 -> 8 -> 7
	hg.AddChild(7, 8)
	hg.AddChild(8, 7)

	// Cycle 2: 3 -> 4 -> 5 -> 3
	hg.AddChild(3, 4)
	hg.AddChild(4, 5)
	hg.AddChild(5, 3)

	// Acyclic tail
	hg.AddChild(5, 6)

	cycles := FindCycles(hg)

	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles, but found %d", len(cycles))
	}
	if len(cycles[0].Nodes) != 3 || cycles[0].Nodes[0] != 3 {
		t.Errorf("Expected first cycle to be [3 4 5], got %v", cycles[0].Nodes)
	}
	if len(cycles[1].Nodes) != 2 || cycles[1].Nodes[0] != 7 {
		t.Errorf("Expected second cycle to be [7 8], got %v", cycles[1].Nodes)
	}
}

func TestFindHierarchyCycles_IgnoresInterfaceLinks(t *testing.T) {
	m := model.Build(model.RawGraph{
		Nodes: []model.RawNode{
			{ID: 1, Name: "Function"},
			{ID: 2, Name: "Effect"},
			{ID: 3, Name: "Self"},
		},
		Links: []model.RawLink{
			{Source: model.Ref(1), Target: model.Ref(2)},
			{Source: model.Ref(2), Target: model.Ref(1), Relation: "signal"},
			{Source: model.Ref(3), Target: model.Ref(3)},
		},
	})

	cycles := FindHierarchyCycles(m)

	if len(cycles) != 1 {
		t.Fatalf("Expected only the self loop, got %v", cycles)
	}
	if len(cycles[0].Nodes) != 1 || cycles[0].Nodes[0] != 3 {
		t.Errorf("Expected self loop on 3, got %v", cycles[0].Nodes)
	}
}
