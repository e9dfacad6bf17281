package model

import "strings"

// NodeKind is the role of a node in the fault hierarchy, derived from its name.
type NodeKind string

const (
	KindFunction   NodeKind = "function"
	KindEffect     NodeKind = "effect"
	KindCause      NodeKind = "cause"
	KindSeverity   NodeKind = "severity"
	KindOccurrence NodeKind = "occurrence"
	KindDetection  NodeKind = "detection"
	KindInterface  NodeKind = "interface"
	KindOther      NodeKind = "other"
)

// classified in priority order
var nodeKinds = []NodeKind{
	KindFunction,
	KindEffect,
	KindCause,
	KindSeverity,
	KindOccurrence,
	KindDetection,
	KindInterface,
}

// ClassifyNode returns the kind of the first kind word found in name.
// Words must start at the beginning of the name or after a space.
func ClassifyNode(name string) NodeKind {
	s := " " + strings.ToLower(name)
	for _, k := range nodeKinds {
		if strings.Contains(s, " "+string(k)) {
			return k
		}
	}
	return KindOther
}

// DefaultAttributes is the attribute set given to nodes that have none.
func DefaultAttributes(name string) map[string]AttrValue {
	return map[string]AttrValue{
		"label": {Name: name, Type: "string"},
	}
}
