package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ritzau/causegraph/pkg/loader"
	"github.com/ritzau/causegraph/pkg/model"
)

// PrintModelReport prints a nicely formatted summary of a loaded document with colors
func PrintModelReport(w io.Writer, sourceName string, res *loader.Result) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	m := res.Model

	// Header
	bold.Fprintln(w, "Causal Graph - Model Report")
	bold.Fprintln(w, "===========================")
	fmt.Fprintf(w, "Source: %s\n", sourceName)
	fmt.Fprintf(w, "Nodes: %d\n", len(m.Nodes))
	fmt.Fprintf(w, "Hierarchy links: %d\n", len(m.ChildLinks))
	fmt.Fprintf(w, "Interface links: %d\n", len(m.InterfaceLinks))
	if m.Severity.Count > 0 {
		fmt.Fprintf(w, "Severity: %g..%g (%d nodes)\n", m.Severity.Min, m.Severity.Max, m.Severity.Count)
	}
	fmt.Fprintln(w)

	// Function roots with their assigned colors
	if len(m.FunctionRoots) > 0 {
		bold.Fprintln(w, "FUNCTION ROOTS:")
		for _, id := range m.FunctionRoots {
			n, _ := m.Node(id)
			cyan.Fprintf(w, "  %d %s", id, n.Name)
			fmt.Fprintf(w, "  %s", m.Color(id))
			if n.HasSeverity {
				fmt.Fprintf(w, "  severity %g", n.Severity)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	} else {
		yellow.Fprintln(w, "No function roots: the global view will be empty")
		fmt.Fprintln(w)
	}

	// Hierarchy roots that are not function roots
	var plain []model.NodeID
	for _, id := range m.Roots {
		if !m.IsFunctionRoot(id) {
			plain = append(plain, id)
		}
	}
	if len(plain) > 0 {
		bold.Fprintln(w, "OTHER ROOTS:")
		for _, id := range plain {
			n, _ := m.Node(id)
			fmt.Fprintf(w, "  %d %s (%s)\n", id, n.Name, n.Kind)
		}
		fmt.Fprintln(w)
	}

	if len(res.Cycles) > 0 {
		red.Fprintln(w, "HIERARCHY CYCLES:")
		for _, c := range res.Cycles {
			yellow.Fprintf(w, "  %v\n", c.Nodes)
		}
		fmt.Fprintln(w)
	}

	// Input problems
	problems := m.DroppedLinks + m.DuplicateNodes
	if m.DroppedLinks > 0 {
		yellow.Fprintf(w, "Dropped links: %d (unknown or missing endpoints)\n", m.DroppedLinks)
	}
	if m.DuplicateNodes > 0 {
		yellow.Fprintf(w, "Duplicate nodes: %d (first definition kept)\n", m.DuplicateNodes)
	}

	if problems == 0 && len(res.Cycles) == 0 {
		green.Fprintln(w, "✓ Graph document is well formed!")
	}
}
