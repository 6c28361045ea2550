package algorithms

import (
	"sort"

	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// SCCResult holds the result of Tarjan's strongly connected components algorithm.
type SCCResult struct {
	Components     [][]string     // each component sorted by id
	NodeComponent  map[string]int // node id -> index into Components
	Largest        []string
	SingletonCount int
}

// tarjanState holds per-node state during Tarjan's DFS.
type tarjanState struct {
	index   int
	lowlink int
	onStack bool
}

// StronglyConnectedComponents finds all SCCs using Tarjan's algorithm in O(V+E) time.
// Only outgoing routes are followed (directed graph semantics). Nodes are
// visited in id order, so component numbering is stable for a given graph.
func StronglyConnectedComponents(graph *network.Graph) *SCCResult {
	nodeIDs := graph.NodeIDs()

	state := make(map[string]*tarjanState, len(nodeIDs))
	var stack []string
	indexCounter := 0
	var components [][]string
	nodeComponent := make(map[string]int, len(nodeIDs))

	var strongconnect func(u string)
	strongconnect = func(u string) {
		state[u] = &tarjanState{
			index:   indexCounter,
			lowlink: indexCounter,
			onStack: true,
		}
		indexCounter++
		stack = append(stack, u)

		for _, v := range graph.Successors(u) {
			if _, exists := state[v]; !exists {
				strongconnect(v)
				if state[v].lowlink < state[u].lowlink {
					state[u].lowlink = state[v].lowlink
				}
			} else if state[v].onStack {
				if state[v].index < state[u].lowlink {
					state[u].lowlink = state[v].index
				}
			}
		}

		// If u is a root node, pop the stack to form an SCC
		if state[u].lowlink == state[u].index {
			sccID := len(components)
			var members []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				members = append(members, w)
				nodeComponent[w] = sccID
				if w == u {
					break
				}
			}
			sort.Strings(members)
			components = append(components, members)
		}
	}

	for _, nodeID := range nodeIDs {
		if _, exists := state[nodeID]; !exists {
			strongconnect(nodeID)
		}
	}

	result := &SCCResult{Components: components, NodeComponent: nodeComponent}
	for _, c := range components {
		if len(c) == 1 {
			result.SingletonCount++
		}
		if len(c) > len(result.Largest) {
			result.Largest = c
		}
	}
	return result
}
