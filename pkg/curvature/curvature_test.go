package curvature

import (
	"math"
	"testing"

	"github.com/ritzau/causegraph/pkg/model"
)

func iface(src, tgt model.NodeID) model.Link {
	return model.Link{Source: src, Target: tgt, Relation: "signal", Kind: model.Interface}
}

func child(src, tgt model.NodeID) model.Link {
	return model.Link{Source: src, Target: tgt, Relation: model.RelationChildOf, Kind: model.ChildOf}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAssign_SingleInterfaceIsStraight(t *testing.T) {
	got := Assign([]model.Link{iface(1, 2)}, DefaultBase)

	if got[0] != 0 {
		t.Errorf("Expected lone interface link to be straight, got %v", got[0])
	}
}

func TestAssign_HierarchyAlwaysStraight(t *testing.T) {
	links := []model.Link{child(1, 2), child(2, 1), child(1, 2)}

	got := Assign(links, DefaultBase)

	for i, c := range got {
		if c != 0 {
			t.Errorf("Expected hierarchy link %d to be straight, got %v", i, c)
		}
	}
}

func TestAssign_InterfaceBesideHierarchy(t *testing.T) {
	links := []model.Link{child(1, 2), iface(2, 1)}

	got := Assign(links, DefaultBase)

	if got[0] != 0 {
		t.Errorf("Expected hierarchy link to stay straight, got %v", got[0])
	}
	if !almostEqual(got[1], DefaultBase) {
		t.Errorf("Expected interface link to bend by %v, got %v", DefaultBase, got[1])
	}
}

func TestAssign_FanSymmetry(t *testing.T) {
	links := []model.Link{
		iface(1, 2),
		iface(2, 1),
		iface(1, 2),
		iface(1, 2),
	}

	got := Assign(links, DefaultBase)

	want := []float64{DefaultBase, -DefaultBase, 2 * DefaultBase, -2 * DefaultBase}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("Link %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestAssign_GroupsAreIndependent(t *testing.T) {
	links := []model.Link{
		iface(1, 2),
		iface(3, 4),
		iface(2, 1),
		iface(5, 6),
	}

	got := Assign(links, 0.5)

	want := []float64{0.5, 0, -0.5, 0}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("Link %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestAssign_LargeFanStaysDistinct(t *testing.T) {
	links := make([]model.Link, 0)
	for i := 0; i < 12; i++ {
		links = append(links, iface(1, 2))
	}

	got := Assign(links, DefaultBase)

	seen := make(map[float64]int)
	for i, c := range got {
		if prev, ok := seen[c]; ok {
			t.Errorf("Links %d and %d share curvature %v", prev, i, c)
		}
		seen[c] = i
	}
	if want := 6 * DefaultBase; !almostEqual(got[10], want) || !almostEqual(got[11], -want) {
		t.Errorf("Expected outermost pair at +/-%v, got %v and %v", want, got[10], got[11])
	}
}

func TestAssign_Empty(t *testing.T) {
	if got := Assign(nil, DefaultBase); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}
