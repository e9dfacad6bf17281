package layout

import (
	"github.com/ritzau/causegraph/pkg/curvature"
	"github.com/ritzau/causegraph/pkg/forces"
	"github.com/ritzau/causegraph/pkg/model"
)

// ViewNode is a drawable node of the live scene.
type ViewNode struct {
	ID     model.NodeID   `json:"id"`
	Name   string         `json:"name"`
	Kind   model.NodeKind `json:"kind"`
	Color  string         `json:"color"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Pinned bool           `json:"pinned"`
	Tree   bool           `json:"tree"`
	Placed bool           `json:"placed"`
	Scale  float64        `json:"scale"`
	Radius float64        `json:"radius"`
	Depth  *int           `json:"depth,omitempty"`
}

// ViewLink is a drawable link of the live scene.
type ViewLink struct {
	Source    model.NodeID       `json:"source"`
	Target    model.NodeID       `json:"target"`
	Relation  string             `json:"relation"`
	Kind      model.RelationKind `json:"kind"`
	Curvature float64            `json:"curvature"`
	Key       string             `json:"key"`
}

// View is what the rendering layer draws.
type View struct {
	SceneID      uint64        `json:"sceneId"`
	Scope        Scope         `json:"scope"`
	Root         *model.NodeID `json:"root,omitempty"`
	Depth        int           `json:"depth"`
	Phase        forces.Phase  `json:"phase"`
	Transitioned bool          `json:"transitioned"`
	HasSnapshot  bool          `json:"hasSnapshot"`
	Nodes        []ViewNode    `json:"nodes"`
	Links        []ViewLink    `json:"links"`
}

// CurrentView returns the live scene with curvature applied. Before the first
// scene it returns an empty view.
func (c *Controller) CurrentView() View {
	v := View{
		Depth:       c.depth,
		HasSnapshot: c.snapshot != nil,
		Nodes:       make([]ViewNode, 0),
		Links:       make([]ViewLink, 0),
	}
	s := c.scene
	if s == nil || c.arena == nil {
		return v
	}

	v.SceneID = s.ID
	v.Scope = s.Scope
	v.Phase = s.Phase
	v.Transitioned = s.Transitioned
	if s.Scope == ScopeLocal {
		root := s.Root
		v.Root = &root
		v.Depth = s.Depth
	}

	for _, n := range c.arena.Nodes() {
		vn := ViewNode{
			ID:     n.ID,
			Color:  c.model.Color(n.ID),
			X:      n.X,
			Y:      n.Y,
			Pinned: n.Pinned,
			Tree:   n.Tree,
			Placed: n.Placed,
			Scale:  n.Scale,
			Radius: c.opts.Scaling.NodeRadius * n.Scale,
		}
		if mn, ok := c.model.Node(n.ID); ok {
			vn.Name = mn.Name
			vn.Kind = mn.Kind
		}
		if d, ok := s.DepthByID[n.ID]; ok {
			vn.Depth = &d
		}
		v.Nodes = append(v.Nodes, vn)
	}

	curves := curvature.Assign(s.Links, c.opts.CurvatureBase)
	for i, l := range s.Links {
		v.Links = append(v.Links, ViewLink{
			Source:    l.Source,
			Target:    l.Target,
			Relation:  l.Relation,
			Kind:      l.Kind,
			Curvature: curves[i],
			Key:       l.Key(),
		})
	}
	return v
}
