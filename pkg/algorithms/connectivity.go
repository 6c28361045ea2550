package algorithms

import (
	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// UndefinedPathLength is reported when a graph has no reachable ordered pair.
const UndefinedPathLength = -1.0

// PathLengthStats summarizes hop distances over ordered node pairs.
type PathLengthStats struct {
	Average          float64 // mean hops over reachable pairs, or UndefinedPathLength
	ReachablePairs   int
	UnreachablePairs int
	Disconnected     bool // graph is not strongly connected
}

// AveragePathLength computes the mean hop distance over every ordered pair
// (u, v), u != v, where v is reachable from u. Unreachable pairs are counted
// but never contribute an infinite length.
func AveragePathLength(graph *network.Graph) PathLengthStats {
	ids := graph.NodeIDs()
	n := len(ids)
	stats := PathLengthStats{Average: UndefinedPathLength}
	if n == 0 {
		stats.Disconnected = true
		return stats
	}

	total := 0
	for _, src := range ids {
		for dst, hops := range HopLengthsFrom(graph, src) {
			if dst == src {
				continue
			}
			total += hops
			stats.ReachablePairs++
		}
	}
	stats.UnreachablePairs = n*(n-1) - stats.ReachablePairs
	stats.Disconnected = stats.UnreachablePairs > 0

	if stats.ReachablePairs > 0 {
		stats.Average = float64(total) / float64(stats.ReachablePairs)
	}
	return stats
}

// AverageDegree returns the mean of in-degree plus out-degree over all nodes.
// The second result is false for an empty graph, where the mean is undefined.
func AverageDegree(graph *network.Graph) (float64, bool) {
	n := graph.NodeCount()
	if n == 0 {
		return 0, false
	}
	return 2 * float64(graph.RouteCount()) / float64(n), true
}

// BoundedShortestPaths returns the hop-shortest path for every (source,
// target) pair whose length is between 1 and maxHops inclusive. Pairs are
// enumerated in the order given, so sorted inputs yield a stable result.
func BoundedShortestPaths(graph *network.Graph, sources, targets []string, maxHops int) []PathResult {
	var out []PathResult
	for _, src := range sources {
		lengths := HopLengthsFrom(graph, src)
		for _, dst := range targets {
			hops, ok := lengths[dst]
			if !ok || hops < 1 || hops > maxHops {
				continue
			}
			out = append(out, ShortestPath(graph, src, dst))
		}
	}
	return out
}
