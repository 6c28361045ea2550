package algorithms

import (
	"container/heap"
	"container/list"
	"math"

	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// PathResult describes the outcome of a path query. An unreachable target is
// a normal result, not an error: Reachable is false and the slices are empty.
type PathResult struct {
	Nodes     []string // node ids from source to target, inclusive
	Routes    []string // route ids traversed, len(Nodes)-1
	Hops      int
	Weight    float64 // summed route weight (hop queries count 1 per hop)
	Reachable bool
}

// Unreachable is the result returned when no path exists.
func Unreachable() PathResult {
	return PathResult{Hops: -1}
}

// Weight selects the cost of traversing a route.
type Weight func(network.Route) float64

// Common weights
var (
	ByDistance    Weight = func(r network.Route) float64 { return r.DistanceKm }
	ByTransitTime Weight = func(r network.Route) float64 { return r.TransitTimeHours }
	ByCost        Weight = func(r network.Route) float64 { return r.Cost }
)

// ShortestPath finds the path with the fewest hops using BFS. Neighbours are
// visited in id order so equal-length alternatives resolve deterministically.
func ShortestPath(graph *network.Graph, startID, endID string) PathResult {
	if !graph.HasNode(startID) || !graph.HasNode(endID) {
		return Unreachable()
	}
	if startID == endID {
		return PathResult{Nodes: []string{startID}, Reachable: true}
	}

	parent := map[string]string{startID: startID}
	queue := list.New()
	queue.PushBack(startID)

	for queue.Len() > 0 {
		currentID := queue.Remove(queue.Front()).(string)

		for _, neighborID := range graph.Successors(currentID) {
			if _, seen := parent[neighborID]; seen {
				continue
			}
			parent[neighborID] = currentID
			if neighborID == endID {
				return buildHopPath(graph, startID, endID, parent)
			}
			queue.PushBack(neighborID)
		}
	}

	return Unreachable()
}

func buildHopPath(graph *network.Graph, startID, endID string, parent map[string]string) PathResult {
	nodes := []string{endID}
	for node := endID; node != startID; {
		node = parent[node]
		nodes = append(nodes, node)
	}
	reverse(nodes)

	routes := make([]string, 0, len(nodes)-1)
	for i := 0; i+1 < len(nodes); i++ {
		// lowest id among parallel routes
		routes = append(routes, graph.RoutesBetween(nodes[i], nodes[i+1])[0].ID)
	}

	return PathResult{
		Nodes:     nodes,
		Routes:    routes,
		Hops:      len(routes),
		Weight:    float64(len(routes)),
		Reachable: true,
	}
}

// HopLengthsFrom returns the hop distance from sourceID to every node it can
// reach, including itself at distance 0.
func HopLengthsFrom(graph *network.Graph, sourceID string) map[string]int {
	distances := make(map[string]int)
	if !graph.HasNode(sourceID) {
		return distances
	}
	distances[sourceID] = 0

	queue := list.New()
	queue.PushBack(sourceID)

	for queue.Len() > 0 {
		currentID := queue.Remove(queue.Front()).(string)
		currentDist := distances[currentID]

		for _, neighborID := range graph.Successors(currentID) {
			if _, visited := distances[neighborID]; !visited {
				distances[neighborID] = currentDist + 1
				queue.PushBack(neighborID)
			}
		}
	}

	return distances
}

// AllPairsHopLengths runs HopLengthsFrom for every node.
func AllPairsHopLengths(graph *network.Graph) map[string]map[string]int {
	ids := graph.NodeIDs()
	out := make(map[string]map[string]int, len(ids))
	for _, id := range ids {
		out[id] = HopLengthsFrom(graph, id)
	}
	return out
}

type pqItem struct {
	nodeID   string
	distance float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].nodeID < pq[j].nodeID
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	item := old[len(old)-1]
	*pq = old[:len(old)-1]
	return item
}

// WeightedShortestPath finds the minimum-weight path using Dijkstra's
// algorithm. Weights must be non-negative; among parallel routes the lightest
// is used, ties broken by route id.
func WeightedShortestPath(graph *network.Graph, startID, endID string, weight Weight) PathResult {
	if !graph.HasNode(startID) || !graph.HasNode(endID) {
		return Unreachable()
	}
	if weight == nil {
		weight = ByDistance
	}

	distances := map[string]float64{startID: 0}
	parent := map[string]string{startID: startID}
	via := make(map[string]string) // node -> route id used to reach it
	done := make(map[string]bool)

	pq := &priorityQueue{{startID, 0}}
	for pq.Len() > 0 {
		current := heap.Pop(pq).(pqItem)
		if done[current.nodeID] {
			continue
		}
		done[current.nodeID] = true

		if current.nodeID == endID {
			nodes := []string{endID}
			routes := []string{}
			for node := endID; node != startID; node = parent[node] {
				routes = append(routes, via[node])
				nodes = append(nodes, parent[node])
			}
			reverse(nodes)
			reverse(routes)
			return PathResult{
				Nodes:     nodes,
				Routes:    routes,
				Hops:      len(routes),
				Weight:    distances[endID],
				Reachable: true,
			}
		}

		for _, route := range graph.OutRoutes(current.nodeID) {
			w := weight(route)
			if w < 0 || math.IsNaN(w) {
				continue
			}
			neighborID := route.Destination
			newDist := current.distance + w

			if oldDist, visited := distances[neighborID]; !visited || newDist < oldDist {
				distances[neighborID] = newDist
				parent[neighborID] = current.nodeID
				via[neighborID] = route.ID
				heap.Push(pq, pqItem{neighborID, newDist})
			}
		}
	}

	return Unreachable()
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
