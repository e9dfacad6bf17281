package model

import (
	"fmt"
	"regexp"
)

// NodeID identifies a node in the input document.
type NodeID int64

// RelationKind partitions links into the hierarchy and cross-cutting edges.
type RelationKind int

const (
	ChildOf   RelationKind = iota // hierarchy edge
	Interface                     // any relation other than child_of
)

// RelationChildOf is the relation string of hierarchy edges.
const RelationChildOf = "child_of"

func (k RelationKind) String() string {
	switch k {
	case ChildOf:
		return "child_of"
	case Interface:
		return "interface"
	default:
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
}

func (k RelationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *RelationKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "child_of":
		*k = ChildOf
	case "interface":
		*k = Interface
	default:
		return fmt.Errorf("unknown relation kind %q", text)
	}
	return nil
}

// KindOf classifies a relation string.
func KindOf(relation string) RelationKind {
	if relation == "" || relation == RelationChildOf {
		return ChildOf
	}
	return Interface
}

// Node is a validated vertex of the model.
type Node struct {
	ID          NodeID               `json:"id"`
	Name        string               `json:"name"`
	Severity    float64              `json:"severity,omitempty"`
	HasSeverity bool                 `json:"hasSeverity"`
	Components  []string             `json:"components,omitempty"`
	Attributes  map[string]AttrValue `json:"attributes"`
	Kind        NodeKind             `json:"kind"`
}

// Link is a validated edge. Both endpoints exist in the model.
type Link struct {
	Source     NodeID               `json:"source"`
	Target     NodeID               `json:"target"`
	Relation   string               `json:"relation"`
	Kind       RelationKind         `json:"kind"`
	Attributes map[string]AttrValue `json:"attributes,omitempty"`
}

// Key identifies a link by its endpoints and relation.
func (l Link) Key() string {
	return fmt.Sprintf("%d->%d|%s", l.Source, l.Target, l.Relation)
}

// Model is the derived, read-only view of one input document.
type Model struct {
	Nodes          []Node
	ByID           map[NodeID]*Node
	ChildLinks     []Link
	InterfaceLinks []Link
	Children       map[NodeID][]NodeID
	Parents        map[NodeID][]NodeID
	IfaceAdj       map[NodeID][]NodeID
	Roots          []NodeID
	FunctionRoots  []NodeID
	ColorByID      map[NodeID]string
	Severity       SeverityRange

	// Input problems that were dropped while building.
	DroppedLinks   int
	DuplicateNodes int

	functionRoots map[NodeID]bool
}

var functionMarker = regexp.MustCompile(`(?i)\bfunction\b`)

// Build derives a model from a raw document. It never fails: links that
// reference unknown nodes and repeated node ids are dropped and counted.
func Build(raw RawGraph) *Model {
	m := &Model{
		Nodes:          make([]Node, 0, len(raw.Nodes)),
		ByID:           make(map[NodeID]*Node, len(raw.Nodes)),
		ChildLinks:     make([]Link, 0),
		InterfaceLinks: make([]Link, 0),
		Children:       make(map[NodeID][]NodeID),
		Parents:        make(map[NodeID][]NodeID),
		IfaceAdj:       make(map[NodeID][]NodeID),
		Roots:          make([]NodeID, 0),
		FunctionRoots:  make([]NodeID, 0),
		ColorByID:      make(map[NodeID]string, len(raw.Nodes)),
		functionRoots:  make(map[NodeID]bool),
	}

	seen := make(map[NodeID]bool, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		if seen[rn.ID] {
			m.DuplicateNodes++
			continue
		}
		seen[rn.ID] = true

		attrs := rn.Attributes
		if len(attrs) == 0 {
			attrs = DefaultAttributes(rn.Name)
		}
		m.Nodes = append(m.Nodes, Node{
			ID:          rn.ID,
			Name:        rn.Name,
			Severity:    rn.Severity.Value,
			HasSeverity: rn.Severity.Set,
			Components:  rn.Components,
			Attributes:  attrs,
			Kind:        ClassifyNode(rn.Name),
		})
	}
	for i := range m.Nodes {
		m.ByID[m.Nodes[i].ID] = &m.Nodes[i]
	}

	for _, rl := range raw.Links {
		if !rl.Source.Valid || !rl.Target.Valid || !m.Has(rl.Source.ID) || !m.Has(rl.Target.ID) {
			m.DroppedLinks++
			continue
		}
		relation := rl.Relation
		if relation == "" {
			relation = RelationChildOf
		}
		link := Link{
			Source:     rl.Source.ID,
			Target:     rl.Target.ID,
			Relation:   relation,
			Kind:       KindOf(relation),
			Attributes: rl.Attributes,
		}

		if link.Kind == ChildOf {
			m.ChildLinks = append(m.ChildLinks, link)
			m.Children[link.Source] = appendUnique(m.Children[link.Source], link.Target)
			m.Parents[link.Target] = appendUnique(m.Parents[link.Target], link.Source)
		} else {
			m.InterfaceLinks = append(m.InterfaceLinks, link)
			m.IfaceAdj[link.Source] = appendUnique(m.IfaceAdj[link.Source], link.Target)
			m.IfaceAdj[link.Target] = appendUnique(m.IfaceAdj[link.Target], link.Source)
		}
	}

	for _, n := range m.Nodes {
		if len(m.Parents[n.ID]) == 0 {
			m.Roots = append(m.Roots, n.ID)
		}
		if n.HasSeverity || functionMarker.MatchString(n.Name) {
			m.FunctionRoots = append(m.FunctionRoots, n.ID)
			m.functionRoots[n.ID] = true
		}
	}

	m.Severity = severityRange(m.Nodes)
	m.assignColors()

	return m
}

// Has reports whether id is a node of the model.
func (m *Model) Has(id NodeID) bool {
	_, ok := m.ByID[id]
	return ok
}

// Node returns the node with the given id.
func (m *Model) Node(id NodeID) (*Node, bool) {
	n, ok := m.ByID[id]
	return n, ok
}

// IsFunctionRoot reports whether id seeds color propagation.
func (m *Model) IsFunctionRoot(id NodeID) bool {
	return m.functionRoots[id]
}

// Color returns the propagated color of a node, or the empty string.
func (m *Model) Color(id NodeID) string {
	return m.ColorByID[id]
}

func appendUnique(ids []NodeID, id NodeID) []NodeID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
