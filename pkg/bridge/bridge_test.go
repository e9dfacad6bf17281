package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ritzau/causegraph/pkg/forces"
	"github.com/ritzau/causegraph/pkg/layout"
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/pubsub"
	"github.com/ritzau/causegraph/pkg/sim"
)

type published struct {
	topic     string
	eventType string
	data      interface{}
}

type recordingPublisher struct {
	events []published
	err    error
}

func (p *recordingPublisher) Publish(topic string, eventType string, data interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic, eventType, data})
	return nil
}

func (p *recordingPublisher) types() []string {
	var out []string
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

func (p *recordingPublisher) last(eventType string) (interface{}, bool) {
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].eventType == eventType {
			return p.events[i].data, true
		}
	}
	return nil, false
}

var (
	childLink = model.Link{Source: 1, Target: 2, Relation: model.RelationChildOf, Kind: model.ChildOf}
	ifaceLink = model.Link{Source: 1, Target: 3, Relation: "detects", Kind: model.Interface}
)

func TestBridge_PublishesCommandsOnSessionTopic(t *testing.T) {
	pub := &recordingPublisher{}
	b := New(pub, "s1")

	arena := sim.NewArena([]model.NodeID{1, 2})
	arena.Pin(1, 10, 20)
	forces.Apply(b, forces.DefaultParams(), forces.SettleTree, nil)
	b.SetGraphData(4, arena, []model.Link{childLink})
	b.SetCooldownTicks(63)
	b.ZoomToFit(200*time.Millisecond, 120)
	b.CenterAt(0, 0, 200*time.Millisecond)

	for _, e := range pub.events {
		if e.topic != "sim:s1" {
			t.Errorf("Expected topic sim:s1, got %s", e.topic)
		}
	}

	want := []string{CmdForces, CmdVelocityDecay, CmdAlphaTarget, CmdReheat, CmdGraphData, CmdCooldown, CmdZoomToFit, CmdCenterAt}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("Expected commands %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected command %d to be %s, got %s", i, want[i], got[i])
		}
	}

	data, _ := pub.last(CmdGraphData)
	gd := data.(GraphData)
	if gd.Scene != 4 || len(gd.Nodes) != 2 || len(gd.Links) != 1 {
		t.Fatalf("Unexpected graph data %+v", gd)
	}
	if gd.Nodes[0].FX == nil || *gd.Nodes[0].FX != 10 {
		t.Errorf("Expected pinned node to carry fx, got %+v", gd.Nodes[0])
	}
	if gd.Nodes[1].FX != nil {
		t.Errorf("Expected free node without fx, got %+v", gd.Nodes[1])
	}

	cd, _ := pub.last(CmdCooldown)
	if cd.(cooldownCommand).Scene != 4 || cd.(cooldownCommand).Ticks != 63 {
		t.Errorf("Expected cooldown stamped with scene 4, got %+v", cd)
	}
}

func TestBridge_EvaluatesForces(t *testing.T) {
	pub := &recordingPublisher{}
	b := New(pub, "s1")

	arena := sim.NewArena([]model.NodeID{1, 2, 3})
	arena.Update(1, func(n *sim.Node) { n.Tree = true; n.Scale = 2 })
	arena.Update(2, func(n *sim.Node) { n.Tree = true })
	b.SetGraphData(1, arena, []model.Link{childLink, ifaceLink})

	p := forces.DefaultParams()
	b.ConfigureForces(p.Build(forces.SettleTree, []model.Link{childLink, ifaceLink}))

	data, ok := pub.last(CmdForces)
	if !ok {
		t.Fatal("Expected forces command")
	}
	fd := data.(ForceData)

	if len(fd.Links) != 2 {
		t.Fatalf("Expected 2 link params, got %d", len(fd.Links))
	}
	if fd.Links[0].Distance != 55 || fd.Links[1].Distance != 5 {
		t.Errorf("Expected distances 55 and 5, got %v and %v", fd.Links[0].Distance, fd.Links[1].Distance)
	}
	if fd.Links[1].Strength != 0.05 {
		t.Errorf("Expected settle interface strength 0.05, got %v", fd.Links[1].Strength)
	}
	if fd.Collide == nil || fd.Collide.Iterations != 2 {
		t.Errorf("Expected collide params while settling, got %+v", fd.Collide)
	}
	if len(fd.Nodes) != 3 {
		t.Fatalf("Expected 3 node params, got %d", len(fd.Nodes))
	}
	if fd.Nodes[0].CollideRadius != 36 {
		t.Errorf("Expected scaled collide radius 36, got %v", fd.Nodes[0].CollideRadius)
	}
	if fd.Nodes[2].Charge != -700 || fd.Nodes[2].CollideRadius != 0 {
		t.Errorf("Expected interface node charge -700 without collision, got %+v", fd.Nodes[2])
	}
}

func TestBridge_HandleReport(t *testing.T) {
	b := New(&recordingPublisher{}, "s1")
	arena := sim.NewArena([]model.NodeID{1, 2})
	arena.Pin(1, 5, 5)
	b.SetGraphData(2, arena, nil)

	var stopped []uint64
	b.OnStop(func(scene uint64) bool {
		stopped = append(stopped, scene)
		return true
	})

	if b.HandleReport(Report{Scene: 1, Positions: []sim.NodePosition{{ID: 2, X: 9, Y: 9}}}) {
		t.Error("Expected stale report to be ignored")
	}
	if n, _ := arena.Get(2); n.X == 9 {
		t.Error("Expected stale positions to be discarded")
	}

	report := Report{
		Scene: 2,
		Positions: []sim.NodePosition{
			{ID: 1, X: 100, Y: 100},
			{ID: 2, X: 40, Y: -40},
		},
		Camera: &Camera{K: 2, X: 10, Y: 20},
	}
	if !b.HandleReport(report) {
		t.Error("Expected report of current scene to reach the stop callback")
	}
	if len(stopped) != 1 || stopped[0] != 2 {
		t.Errorf("Expected one stop for scene 2, got %v", stopped)
	}

	if n, _ := arena.Get(1); n.X != 5 || n.Y != 5 {
		t.Errorf("Expected pinned node to keep its position, got (%v, %v)", n.X, n.Y)
	}
	if n, _ := arena.Get(2); n.X != 40 || n.Y != -40 {
		t.Errorf("Expected reported position (40, -40), got (%v, %v)", n.X, n.Y)
	}

	x, y := b.ScreenCoords(40, -40)
	if x != 90 || y != -60 {
		t.Errorf("Expected screen (90, -60), got (%v, %v)", x, y)
	}
}

func TestBridge_PublishErrorIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("publisher is closed")}
	b := New(pub, "s1")

	b.Reheat()
	b.SetGraphData(1, sim.NewArena(nil), nil)

	if b.Scene() != 1 {
		t.Errorf("Expected scene to be tracked despite publish errors, got %d", b.Scene())
	}
}

// The bridge drives a layout controller end to end through a real publisher.
func TestBridge_DrivesController(t *testing.T) {
	pub := pubsub.NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New(pub, "e2e")
	sub, err := pub.Subscribe(ctx, b.Topic())
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	fn := model.RawNode{ID: 1, Name: "Function A", Severity: model.SeverityOf(5)}
	m := model.Build(model.RawGraph{
		Nodes: []model.RawNode{fn, {ID: 2, Name: "Effect"}, {ID: 3, Name: "Cause"}},
		Links: []model.RawLink{
			{Source: model.Ref(1), Target: model.Ref(2), Relation: "child_of"},
			{Source: model.Ref(2), Target: model.Ref(3), Relation: "child_of"},
			{Source: model.Ref(1), Target: model.Ref(3), Relation: "detects"},
		},
	})
	opts := layout.DefaultOptions()
	opts.Seed = 7
	c := layout.NewController(m, opts)
	b.OnStop(c.HandleEngineStop)
	c.Attach(b)

	scene := c.Start()

	var gd GraphData
	for gd.Scene == 0 {
		select {
		case e := <-sub.Events():
			if e.Type != CmdGraphData {
				continue
			}
			if err := json.Unmarshal(e.Data, &gd); err != nil {
				t.Fatalf("Failed to decode graph data: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Timeout waiting for graph data")
		}
	}
	if gd.Scene != scene || len(gd.Nodes) != 3 || len(gd.Links) != 2 {
		t.Fatalf("Unexpected graph data %+v", gd)
	}

	var positions []sim.NodePosition
	for _, n := range gd.Nodes {
		positions = append(positions, sim.NodePosition{ID: n.ID, X: float64(n.ID) * 50, Y: 0})
	}
	if !b.HandleReport(Report{Scene: scene, Positions: positions}) {
		t.Fatal("Expected engine stop to transition the layout")
	}

	v := c.CurrentView()
	if v.Phase != forces.WithInterface || len(v.Links) != 3 {
		t.Errorf("Expected interface phase with 3 links, got %s with %d", v.Phase, len(v.Links))
	}
	for _, n := range v.Nodes {
		if n.X != float64(n.ID)*50 || !n.Pinned {
			t.Errorf("Expected node %d pinned at reported position, got %+v", n.ID, n)
		}
	}
}
