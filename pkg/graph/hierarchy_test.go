package graph

import (
	"testing"

	"github.com/ritzau/causegraph/pkg/model"
)

func TestNewHierarchyGraph(t *testing.T) {
	hg := NewHierarchyGraph(nil)
	if hg == nil {
		t.Fatal("NewHierarchyGraph() returned nil")
	}

	if hg.Graph().Nodes().Len() != 0 {
		t.Errorf("New graph should have 0 nodes, got %d", hg.Graph().Nodes().Len())
	}
}

func TestAddChild(t *testing.T) {
	hg := NewHierarchyGraph(nil)

	hg.AddChild(1, 2)
	hg.AddChild(1, 2)
	hg.AddChild(1, 3)

	if hg.Graph().Nodes().Len() != 3 {
		t.Errorf("Expected 3 nodes, got %d", hg.Graph().Nodes().Len())
	}
	if hg.EdgeCount() != 2 {
		t.Errorf("Expected parallel edges to collapse to 2, got %d", hg.EdgeCount())
	}

	children := hg.Children(1)
	if len(children) != 2 {
		t.Fatalf("Expected 2 children, got %v", children)
	}
	seen := map[model.NodeID]bool{}
	for _, c := range children {
		seen[c] = true
	}
	if !seen[2] || !seen[3] {
		t.Errorf("Expected children 2 and 3, got %v", children)
	}

	if got := hg.Children(42); got != nil {
		t.Errorf("Expected nil children for unknown node, got %v", got)
	}
}

func TestAddChild_SelfLoop(t *testing.T) {
	hg := NewHierarchyGraph(nil)

	hg.AddChild(5, 5)
	hg.AddChild(5, 5)

	if got := hg.SelfLoops(); len(got) != 1 || got[0] != 5 {
		t.Errorf("Expected self loop on 5, got %v", got)
	}
	if hg.EdgeCount() != 0 {
		t.Errorf("Self loops must not become graph edges, got %d", hg.EdgeCount())
	}
}

func TestBuildHierarchyGraph(t *testing.T) {
	m := model.Build(model.RawGraph{
		Nodes: []model.RawNode{
			{ID: 10, Name: "Function"},
			{ID: 20, Name: "Effect"},
			{ID: 30, Name: "Cause"},
			{ID: 40, Name: "Lonely"},
		},
		Links: []model.RawLink{
			{Source: model.Ref(10), Target: model.Ref(20)},
			{Source: model.Ref(20), Target: model.Ref(30)},
			{Source: model.Ref(30), Target: model.Ref(10), Relation: "feedback"},
		},
	})

	hg := BuildHierarchyGraph(m)

	if hg.Model() != m {
		t.Error("Expected graph to keep its model")
	}
	if hg.Graph().Nodes().Len() != 4 {
		t.Errorf("Expected 4 nodes, got %d", hg.Graph().Nodes().Len())
	}
	// The interface link must not appear
	if hg.EdgeCount() != 2 {
		t.Errorf("Expected 2 hierarchy edges, got %d", hg.EdgeCount())
	}
	if hg.Graph().HasEdgeFromTo(30, 10) {
		t.Error("Interface link leaked into hierarchy graph")
	}
}
