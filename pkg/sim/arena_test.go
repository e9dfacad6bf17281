package sim

import (
	"testing"
	"time"

	"github.com/ritzau/causegraph/pkg/model"
)

func TestNewArena(t *testing.T) {
	a := NewArena([]model.NodeID{5, 3, 5, 9})

	if a.Len() != 3 {
		t.Fatalf("Expected 3 slots, got %d", a.Len())
	}
	ids := a.IDs()
	want := []model.NodeID{5, 3, 9}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected slot %d to hold %d, got %d", i, want[i], ids[i])
		}
	}
	if i, ok := a.Index(9); !ok || i != 2 {
		t.Errorf("Expected index 2 for node 9, got %d (%v)", i, ok)
	}
	n, _ := a.Get(3)
	if n.Scale != 1 {
		t.Errorf("Expected default scale 1, got %v", n.Scale)
	}
}

func TestArena_PinnedNodesIgnoreMoves(t *testing.T) {
	a := NewArena([]model.NodeID{1, 2})

	a.Pin(1, 10, 20)

	if a.Move(1, 99, 99) {
		t.Error("Move of pinned node reported success")
	}
	n, _ := a.Get(1)
	if n.X != 10 || n.Y != 20 {
		t.Errorf("Pinned node moved to (%v,%v)", n.X, n.Y)
	}

	moved := a.ApplyPositions([]NodePosition{
		{ID: 1, X: 0, Y: 0},
		{ID: 2, X: 3, Y: 4},
		{ID: 42, X: 1, Y: 1},
	})
	if moved != 1 {
		t.Errorf("Expected 1 moved node, got %d", moved)
	}
	n, _ = a.Get(2)
	if n.X != 3 || n.Y != 4 {
		t.Errorf("Expected node 2 at (3,4), got (%v,%v)", n.X, n.Y)
	}

	a.Unpin(1)
	if !a.Move(1, 7, 8) {
		t.Error("Move after unpin failed")
	}
	n, _ = a.Get(1)
	if n.X != 7 || n.Y != 8 || n.Pinned {
		t.Errorf("Expected unpinned node at (7,8), got %+v", n)
	}
}

func TestArena_PinClearsVelocity(t *testing.T) {
	a := NewArena([]model.NodeID{1})
	a.Update(1, func(n *Node) { n.VX, n.VY = 3, 4 })

	a.Pin(1, 0, 0)

	n, _ := a.Get(1)
	if n.VX != 0 || n.VY != 0 {
		t.Errorf("Expected zero velocity after pin, got (%v,%v)", n.VX, n.VY)
	}
	if n.FX != 0 || n.FY != 0 || !n.Pinned {
		t.Errorf("Expected pin at origin, got %+v", n)
	}
}

func TestTicks(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 1},
		{5 * time.Millisecond, 1},
		{time.Second, 63},
		{200 * time.Millisecond, 13},
	}

	for _, tt := range tests {
		if got := Ticks(tt.d); got != tt.want {
			t.Errorf("Ticks(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestRecorder_ScreenCoords(t *testing.T) {
	r := NewRecorder()
	r.K, r.OffsetX, r.OffsetY = 2, 10, -5

	x, y := r.ScreenCoords(3, 4)

	if x != 16 || y != 3 {
		t.Errorf("Expected (16,3), got (%v,%v)", x, y)
	}
}
