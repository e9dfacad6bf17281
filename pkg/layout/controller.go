// Package layout drives the two-phase layout of a view: the hierarchy is
// settled alone, frozen, and then interface links are laid out around it.
package layout

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/ritzau/causegraph/pkg/forces"
	"github.com/ritzau/causegraph/pkg/lens"
	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/model"
	"github.com/ritzau/causegraph/pkg/sim"
)

// Scope is what a scene shows.
type Scope int

const (
	ScopeGlobal Scope = iota // forest under the function roots
	ScopeLocal               // neighborhood of one root
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Scene is one run of the layout state machine for a view scope.
type Scene struct {
	ID    uint64
	Scope Scope
	Root  model.NodeID
	Depth int
	Phase forces.Phase
	// Transitioned is set once the scene has entered WithInterface.
	Transitioned bool

	// Downstream depth of local scenes.
	DepthByID map[model.NodeID]int
	// Tree nodes in core order.
	Tree []model.NodeID
	// Frozen tree positions, set on transition.
	Fixed map[model.NodeID]sim.Position
	// Links currently handed to the simulator.
	Links []model.Link
}

// Snapshot is the frozen tree layout of the first settled global scene.
type Snapshot struct {
	Nodes []sim.NodePosition             `json:"nodes"`
	ByID  map[model.NodeID]sim.Position `json:"-"`
}

func newSnapshot(tree []model.NodeID, fixed map[model.NodeID]sim.Position) *Snapshot {
	s := &Snapshot{
		Nodes: make([]sim.NodePosition, 0, len(tree)),
		ByID:  make(map[model.NodeID]sim.Position, len(tree)),
	}
	for _, id := range tree {
		p := fixed[id]
		s.Nodes = append(s.Nodes, sim.NodePosition{ID: id, X: p.X, Y: p.Y})
		s.ByID[id] = p
	}
	return s
}

// Controller runs the layout state machine of one view. It is not safe for
// concurrent use; callers serialize access.
type Controller struct {
	model *model.Model
	opts  Options
	sim   sim.Simulator
	log   *slog.Logger
	rng   *rand.Rand

	arena     *sim.Arena
	scene     *Scene
	snapshot  *Snapshot
	depth     int
	lastScene uint64
}

// NewController creates a controller for m. No scene is started until Start.
func NewController(m *model.Model, opts Options) *Controller {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	depth := opts.Depth
	if depth == 0 {
		depth = DefaultDepth
	}

	return &Controller{
		model: m,
		opts:  opts,
		log:   logging.New("layout"),
		rng:   rand.New(rand.NewSource(seed)),
		depth: ClampDepth(depth),
	}
}

// Attach sets the simulator. If a scene is live it is handed over as is.
func (c *Controller) Attach(s sim.Simulator) {
	c.sim = s
	if s == nil || c.scene == nil {
		return
	}
	s.SetGraphData(c.scene.ID, c.arena, c.scene.Links)
	forces.Apply(s, c.opts.Forces, c.scene.Phase, c.scene.Links)
	s.SetCooldownTicks(sim.Ticks(c.opts.SettleDuration))
}

// Detach drops the simulator. Lifecycle calls become no-ops until Attach.
func (c *Controller) Detach() {
	c.sim = nil
}

// Start shows the global view. It returns the new scene id, or 0 when no
// simulator is attached.
func (c *Controller) Start() uint64 {
	return c.ReturnToGlobal()
}

// SetModel replaces the model and starts over in the global view. The depth
// and the scene counter carry over, so stop reports for scenes of the old
// model stay stale.
func (c *Controller) SetModel(m *model.Model) uint64 {
	c.model = m
	c.scene = nil
	c.arena = nil
	c.snapshot = nil
	return c.Start()
}

// SelectRoot shows the neighborhood of root. A depth <= 0 keeps the current
// depth. An unknown root yields an empty scene.
func (c *Controller) SelectRoot(root model.NodeID, depth int) uint64 {
	if depth > 0 {
		c.depth = ClampDepth(depth)
	}
	return c.startScene(ScopeLocal, root)
}

// ReturnToGlobal shows the forest. The first global scene is settled; later
// ones restore its snapshot and go straight to the interface phase.
func (c *Controller) ReturnToGlobal() uint64 {
	if c.sim == nil {
		c.log.Debug("no simulator attached, ignoring global view request")
		return 0
	}
	if c.snapshot != nil {
		return c.restoreGlobal()
	}
	return c.startScene(ScopeGlobal, 0)
}

// SetDepth changes the local depth and restarts a local scene.
func (c *Controller) SetDepth(depth int) uint64 {
	c.depth = ClampDepth(depth)
	if c.scene == nil || c.scene.Scope != ScopeLocal {
		return 0
	}
	return c.startScene(ScopeLocal, c.scene.Root)
}

// HandleEngineStop moves the scene sceneID from SettleTree to WithInterface.
// It reports whether the transition ran. Stop signals for other scenes,
// repeated signals, and signals without a simulator are ignored.
func (c *Controller) HandleEngineStop(sceneID uint64) bool {
	if c.sim == nil {
		c.log.Debug("no simulator attached, ignoring engine stop", "scene", sceneID)
		return false
	}
	s := c.scene
	if s == nil || s.ID != sceneID {
		c.log.Debug("ignoring engine stop of stale scene", "scene", sceneID)
		return false
	}
	if s.Phase != forces.SettleTree || s.Transitioned {
		return false
	}
	s.Transitioned = true

	s.Fixed = make(map[model.NodeID]sim.Position, len(s.Tree))
	for _, id := range s.Tree {
		if n, ok := c.arena.Get(id); ok {
			s.Fixed[id] = sim.Position{X: n.X, Y: n.Y}
		}
	}

	if s.Scope == ScopeGlobal && c.snapshot == nil {
		c.snapshot = newSnapshot(s.Tree, s.Fixed)
		c.log.Info("global layout cached", "nodes", len(c.snapshot.Nodes))
	}

	c.enterInterfacePhase(s)
	return true
}

// Scene returns the live scene.
func (c *Controller) Scene() (Scene, bool) {
	if c.scene == nil {
		return Scene{}, false
	}
	return *c.scene, true
}

// Snapshot returns the cached global layout, or nil.
func (c *Controller) Snapshot() *Snapshot {
	return c.snapshot
}

// Arena returns the position store of the live scene.
func (c *Controller) Arena() *sim.Arena {
	return c.arena
}

// Depth returns the depth used for local scenes.
func (c *Controller) Depth() int {
	return c.depth
}

// Model returns the model the controller lays out.
func (c *Controller) Model() *model.Model {
	return c.model
}

// ScreenPosition projects the current position of id through the
// simulator's camera.
func (c *Controller) ScreenPosition(id model.NodeID) (float64, float64, bool) {
	if c.sim == nil || c.arena == nil {
		return 0, 0, false
	}
	n, ok := c.arena.Get(id)
	if !ok {
		return 0, 0, false
	}
	x, y := c.sim.ScreenCoords(n.X, n.Y)
	return x, y, true
}

func (c *Controller) newScene(scope Scope, root model.NodeID) *Scene {
	c.lastScene++
	return &Scene{
		ID:    c.lastScene,
		Scope: scope,
		Root:  root,
		Depth: c.depth,
		Phase: forces.SettleTree,
	}
}

func (c *Controller) startScene(scope Scope, root model.NodeID) uint64 {
	if c.sim == nil {
		c.log.Debug("no simulator attached, scene not started", "scope", scope, "root", root)
		return 0
	}

	var core lens.Core
	if scope == ScopeGlobal {
		core = lens.Forest(c.model, c.model.FunctionRoots)
	} else {
		core = lens.BiLocal(c.model, root, c.depth)
	}

	s := c.newScene(scope, root)
	s.DepthByID = core.DepthByID
	s.Tree = core.Nodes
	s.Links = core.Links

	arena := sim.NewArena(core.Nodes)
	for _, id := range core.Nodes {
		x, y := c.jitter(), c.jitter()
		scale := c.scale(s, id, true)
		arena.Update(id, func(n *sim.Node) {
			n.X, n.Y = x, y
			n.VX, n.VY = 0, 0
			n.Pinned = false
			n.Tree = true
			n.Scale = scale
			n.Placed = true
		})
	}

	c.arena = arena
	c.scene = s

	c.sim.SetGraphData(s.ID, arena, s.Links)
	forces.Apply(c.sim, c.opts.Forces, forces.SettleTree, s.Links)
	c.sim.SetCooldownTicks(sim.Ticks(c.opts.SettleDuration))
	c.sim.CenterAt(0, 0, c.opts.FitDuration)

	c.log.Info("scene started",
		"scene", s.ID,
		"scope", scope,
		"root", root,
		"depth", c.depth,
		"nodes", len(s.Tree),
		"links", len(s.Links),
	)
	return s.ID
}

func (c *Controller) restoreGlobal() uint64 {
	s := c.newScene(ScopeGlobal, 0)
	s.Transitioned = true
	s.Tree = make([]model.NodeID, 0, len(c.snapshot.Nodes))
	s.Fixed = make(map[model.NodeID]sim.Position, len(c.snapshot.Nodes))
	for _, p := range c.snapshot.Nodes {
		s.Tree = append(s.Tree, p.ID)
		s.Fixed[p.ID] = sim.Position{X: p.X, Y: p.Y}
	}
	c.scene = s

	c.enterInterfacePhase(s)

	c.log.Info("global layout restored", "scene", s.ID, "nodes", len(s.Tree))
	return s.ID
}

// enterInterfacePhase pins the frozen tree of s, adds the scoped interface
// links and their endpoints, and hands the result to the simulator.
func (c *Controller) enterInterfacePhase(s *Scene) {
	treeSet := make(map[model.NodeID]bool, len(s.Tree))
	for _, id := range s.Tree {
		treeSet[id] = true
	}

	scoped := c.scopedInterfaceLinks(s.Scope, treeSet)
	endpoints := make(map[model.NodeID]bool)
	for _, l := range scoped {
		endpoints[l.Source] = true
		endpoints[l.Target] = true
	}
	var extra []model.NodeID
	for _, n := range c.model.Nodes {
		if endpoints[n.ID] && !treeSet[n.ID] {
			extra = append(extra, n.ID)
		}
	}

	ids := make([]model.NodeID, 0, len(s.Tree)+len(extra))
	ids = append(ids, s.Tree...)
	ids = append(ids, extra...)
	arena := sim.NewArena(ids)

	for _, id := range s.Tree {
		p := s.Fixed[id]
		scale := c.scale(s, id, true)
		arena.Pin(id, p.X, p.Y)
		arena.Update(id, func(n *sim.Node) {
			n.Tree = true
			n.Scale = scale
		})
	}
	for _, id := range extra {
		scale := c.scale(s, id, false)
		arena.Update(id, func(n *sim.Node) {
			n.Tree = false
			n.Pinned = false
			n.Scale = scale
		})
	}
	c.seedInterfaceNodes(arena, extra, s.Fixed, treeSet)

	// Interface nodes start free with a small kick so they leave the arc.
	for _, id := range extra {
		vx, vy := c.kick(), c.kick()
		arena.Update(id, func(n *sim.Node) {
			n.VX, n.VY = vx, vy
		})
	}

	links := make([]model.Link, 0)
	for _, l := range c.model.ChildLinks {
		if treeSet[l.Source] && treeSet[l.Target] {
			links = append(links, l)
		}
	}
	links = append(links, scoped...)

	s.Phase = forces.WithInterface
	s.Links = links
	c.arena = arena

	c.sim.SetGraphData(s.ID, arena, links)
	forces.Apply(c.sim, c.opts.Forces, forces.WithInterface, links)
	c.sim.SetCooldownTicks(sim.Ticks(c.opts.SettleDuration))
	c.sim.ZoomToFit(c.opts.FitDuration, c.opts.FitPadding)

	c.log.Debug("interface phase entered",
		"scene", s.ID,
		"tree", len(s.Tree),
		"interfaceNodes", len(extra),
		"interfaceLinks", len(scoped),
	)
}

// scopedInterfaceLinks returns all interface links for global scenes and
// those touching the tree for local ones.
func (c *Controller) scopedInterfaceLinks(scope Scope, treeSet map[model.NodeID]bool) []model.Link {
	if scope == ScopeGlobal {
		return append([]model.Link(nil), c.model.InterfaceLinks...)
	}
	var scoped []model.Link
	for _, l := range c.model.InterfaceLinks {
		if treeSet[l.Source] || treeSet[l.Target] {
			scoped = append(scoped, l)
		}
	}
	return scoped
}

func (c *Controller) jitter() float64 {
	return (c.rng.Float64() - 0.5) * 2 * c.opts.JitterRadius
}

func (c *Controller) kick() float64 {
	return (c.rng.Float64() - 0.5) * c.opts.KickVelocity
}

// scale is the size factor of id within s.
func (c *Controller) scale(s *Scene, id model.NodeID, tree bool) float64 {
	sc := c.opts.Scaling
	scale := 1.0
	if !tree {
		scale *= sc.InterfaceScale
	} else if c.model.IsFunctionRoot(id) {
		scale *= sc.FunctionRootScale
	}

	if s.Scope == ScopeLocal {
		if id == s.Root {
			scale *= sc.RootScale
		} else if d, ok := s.DepthByID[id]; ok && d > 0 {
			scale *= math.Pow(sc.DepthDecay, float64(d))
		}
	}
	return scale
}
