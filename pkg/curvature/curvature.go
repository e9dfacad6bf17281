// Package curvature spreads parallel links between the same pair of nodes
// into a symmetric fan so they can be told apart when drawn.
package curvature

import (
	"github.com/ritzau/causegraph/pkg/model"
)

// DefaultBase is the curvature step between neighboring links in a fan.
const DefaultBase = 0.22

type pairKey struct {
	lo, hi model.NodeID
}

func keyOf(l model.Link) pairKey {
	if l.Source <= l.Target {
		return pairKey{l.Source, l.Target}
	}
	return pairKey{l.Target, l.Source}
}

// Assign returns the curvature of each link, index-aligned with links.
//
// Links are grouped by unordered endpoint pair. Hierarchy links are always
// straight. A lone interface link between two otherwise unconnected nodes is
// straight too. All other interface links in a group fan out in input order
// as +base, -base, +2*base, -2*base, ... Large fans keep growing past 1 so
// every link in a group gets its own curve.
func Assign(links []model.Link, base float64) []float64 {
	out := make([]float64, len(links))

	groups := make(map[pairKey][]int)
	order := make([]pairKey, 0)
	for i, l := range links {
		k := keyOf(l)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	for _, k := range order {
		hasChild := false
		var iface []int
		for _, i := range groups[k] {
			if links[i].Kind == model.ChildOf {
				hasChild = true
			} else {
				iface = append(iface, i)
			}
		}

		if len(iface) == 1 && !hasChild {
			continue
		}

		for j, i := range iface {
			sign := 1.0
			if j%2 == 1 {
				sign = -1
			}
			out[i] = sign * base * float64(j/2+1)
		}
	}

	return out
}
