package model

import (
	"fmt"
	"math"
)

// Ramp endpoints for severity coloring.
const (
	LightColor = "#ffe3ff"
	DarkColor  = "#6b0f6b"

	// NeutralT is used for unreached nodes when no node carries a severity.
	NeutralT = 0.35
)

var (
	lightRGB = [3]float64{0xff, 0xe3, 0xff}
	darkRGB  = [3]float64{0x6b, 0x0f, 0x6b}
)

// SeverityRange describes the severities present in a model.
// Without any severity-bearing node the range is [0, 1].
type SeverityRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Normalize maps s into [0, 1]. A degenerate range maps everything to 1.
func (r SeverityRange) Normalize(s float64) float64 {
	if r.Max == r.Min {
		return 1
	}
	return clamp01((s - r.Min) / (r.Max - r.Min))
}

// RampColor interpolates between LightColor (t=0) and DarkColor (t=1).
func RampColor(t float64) string {
	t = clamp01(t)
	var c [3]int
	for i := range c {
		v := math.Round(lightRGB[i] + (darkRGB[i]-lightRGB[i])*t)
		c[i] = int(math.Max(0, math.Min(255, v)))
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

func severityRange(nodes []Node) SeverityRange {
	r := SeverityRange{Min: 0, Max: 1}
	for _, n := range nodes {
		if !n.HasSeverity {
			continue
		}
		if r.Count == 0 {
			r.Min, r.Max = n.Severity, n.Severity
		} else {
			r.Min = math.Min(r.Min, n.Severity)
			r.Max = math.Max(r.Max, n.Severity)
		}
		r.Count++
	}
	return r
}

// assignColors propagates each function root's color down the hierarchy.
// A node keeps the first color it receives unless a later root is strictly
// more severe. Nodes no root reaches get the neutral color.
func (m *Model) assignColors() {
	assigned := make(map[NodeID]float64, len(m.Nodes))

	for _, rootID := range m.FunctionRoots {
		root := m.ByID[rootID]
		sev := m.Severity.Max
		if root.HasSeverity {
			sev = root.Severity
		}
		t := m.Severity.Normalize(sev)
		color := RampColor(t)

		visited := map[NodeID]bool{rootID: true}
		queue := []NodeID{rootID}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]

			if prev, ok := assigned[id]; !ok || t > prev {
				assigned[id] = t
				m.ColorByID[id] = color
			}

			for _, child := range m.Children[id] {
				if !visited[child] {
					visited[child] = true
					queue = append(queue, child)
				}
			}
		}
	}

	neutral := RampColor(m.neutralT())
	for _, n := range m.Nodes {
		if _, ok := m.ColorByID[n.ID]; !ok {
			m.ColorByID[n.ID] = neutral
		}
	}
}

func (m *Model) neutralT() float64 {
	if m.Severity.Count == 0 {
		return NeutralT
	}
	sum := 0.0
	for _, n := range m.Nodes {
		if n.HasSeverity {
			sum += m.Severity.Normalize(n.Severity)
		}
	}
	return sum / float64(m.Severity.Count)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
