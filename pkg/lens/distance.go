package lens

import "github.com/ritzau/causegraph/pkg/model"

// distanceQueueNode represents a node in the BFS queue
type distanceQueueNode struct {
	nodeID   model.NodeID
	distance int
}

// Forest returns every node reachable downstream from seeds, with the
// hierarchy links among them. Empty seeds mean the model's roots. Seeds that
// are not in the model are ignored.
func Forest(m *model.Model, seeds []model.NodeID) Core {
	if len(seeds) == 0 {
		seeds = m.Roots
	}

	distances := make(map[model.NodeID]int)
	queue := make([]distanceQueueNode, 0, len(seeds))
	for _, id := range seeds {
		if !m.Has(id) {
			continue
		}
		if _, seen := distances[id]; seen {
			continue
		}
		distances[id] = 0
		queue = append(queue, distanceQueueNode{nodeID: id})
	}

	walk(queue, m.Children, distances, -1)

	return newCore(m, membersOf(distances))
}

// BiLocal returns the neighborhood of root: descendants and ancestors up to
// depth hops each. DepthByID records the downstream hop count; upstream
// nodes are members without a depth. Interface links never widen the core.
func BiLocal(m *model.Model, root model.NodeID, depth int) Core {
	if !m.Has(root) {
		return Core{
			Nodes:     []model.NodeID{},
			Links:     []model.Link{},
			DepthByID: map[model.NodeID]int{},
		}
	}
	if depth < 0 {
		depth = 0
	}

	down := map[model.NodeID]int{root: 0}
	walk([]distanceQueueNode{{nodeID: root}}, m.Children, down, depth)

	up := map[model.NodeID]int{root: 0}
	walk([]distanceQueueNode{{nodeID: root}}, m.Parents, up, depth)

	members := membersOf(down)
	for id := range up {
		members[id] = true
	}

	core := newCore(m, members)
	core.DepthByID = down
	return core
}

// walk runs a BFS from queue over adjacency, recording the first distance at
// which each node is seen. A negative limit means unbounded.
func walk(queue []distanceQueueNode, adjacency map[model.NodeID][]model.NodeID, distances map[model.NodeID]int, limit int) {
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if limit >= 0 && current.distance >= limit {
			continue
		}

		for _, neighbor := range adjacency[current.nodeID] {
			if _, exists := distances[neighbor]; exists {
				continue
			}
			newDistance := current.distance + 1
			distances[neighbor] = newDistance
			queue = append(queue, distanceQueueNode{nodeID: neighbor, distance: newDistance})
		}
	}
}

func membersOf(distances map[model.NodeID]int) map[model.NodeID]bool {
	members := make(map[model.NodeID]bool, len(distances))
	for id := range distances {
		members[id] = true
	}
	return members
}
