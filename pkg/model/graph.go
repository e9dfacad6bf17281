package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// RawGraph is the input document as produced by the fault analysis tooling.
// It is decoded leniently: malformed values are kept as "absent" rather than
// failing the whole document.
type RawGraph struct {
	Nodes []RawNode `json:"nodes"`
	Links []RawLink `json:"links"`
}

// RawNode is a vertex of the input document.
type RawNode struct {
	ID         NodeID               `json:"id"`
	Name       string               `json:"name"`
	Severity   Severity             `json:"severity"`
	Components []string             `json:"components,omitempty"`
	Attributes map[string]AttrValue `json:"attributes,omitempty"`
}

// RawLink is an edge of the input document. A missing relation means child_of.
type RawLink struct {
	Source     Endpoint             `json:"source"`
	Target     Endpoint             `json:"target"`
	Relation   string               `json:"relation,omitempty"`
	Attributes map[string]AttrValue `json:"attributes,omitempty"`
}

// AttrValue is a typed attribute attached to a node or link.
type AttrValue struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Attribute types understood by the editor forms.
var AttrTypes = []string{"string", "int", "float", "number", "bool", "date", "timestamp", "other"}

// Severity is an optional numeric severity. Anything that is not a JSON
// number decodes as unset.
type Severity struct {
	Value float64
	Set   bool
}

// SeverityOf returns a set severity.
func SeverityOf(v float64) Severity {
	return Severity{Value: v, Set: true}
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	*s = Severity{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		// strings, objects: treated as absent
		return nil
	}
	*s = Severity{Value: v, Set: true}
	return nil
}

func (s Severity) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// Endpoint references a node either as a bare id or as an object carrying an
// id field (force engines replace ids with node objects in place).
type Endpoint struct {
	ID    NodeID
	Valid bool
}

// Ref returns an endpoint referencing id.
func Ref(id NodeID) Endpoint {
	return Endpoint{ID: id, Valid: true}
}

func (e *Endpoint) UnmarshalJSON(data []byte) error {
	*e = Endpoint{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			ID *NodeID `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil || obj.ID == nil {
			return nil
		}
		*e = Ref(*obj.ID)
		return nil
	}

	var id NodeID
	if err := json.Unmarshal(data, &id); err != nil {
		return nil
	}
	*e = Ref(id)
	return nil
}

func (e Endpoint) MarshalJSON() ([]byte, error) {
	if !e.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(e.ID)
}

// DecodeRaw reads a graph document.
func DecodeRaw(r io.Reader) (RawGraph, error) {
	var raw RawGraph
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return RawGraph{}, fmt.Errorf("failed to decode graph document: %w", err)
	}
	return raw, nil
}
