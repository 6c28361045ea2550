// Package resilience compares baseline and disrupted network snapshots and
// condenses the difference into a resilience score in [0, 1].
//
// Metrics that are undefined for a graph (degree of an empty graph, path
// length of a graph with no reachable pair) are reported through explicit
// flags and sentinels. No NaN or infinity ever reaches a Report.
package resilience

import (
	"math"

	"github.com/dd0wney/cluso-resilience/pkg/algorithms"
	"github.com/dd0wney/cluso-resilience/pkg/network"
)

// ServiceLevelZ is the one-sided 95% service level z-score used for safety stock.
const ServiceLevelZ = 1.6449

// Metrics is a snapshot of a graph's structural and capacity figures.
type Metrics struct {
	Nodes               int     `json:"nodes"`
	Routes              int     `json:"routes"`
	AverageDegree       float64 `json:"avg_degree"`
	DegreeDefined       bool    `json:"degree_defined"`
	AverageShortestPath float64 `json:"avg_shortest_path"` // algorithms.UndefinedPathLength when no pair is reachable
	ReachablePairs      int     `json:"reachable_pairs"`
	UnreachablePairs    int     `json:"unreachable_pairs"`
	Disconnected        bool    `json:"disconnected"`
	Components          int     `json:"components"`        // strongly connected components
	LargestComponent    int     `json:"largest_component"` // node count of the largest component
	TotalCapacity       float64 `json:"total_capacity"`
	TotalDemand         float64 `json:"total_demand"`
	TotalSafetyStock    float64 `json:"total_safety_stock"`
}

// ComputeMetrics measures g.
func ComputeMetrics(g *network.Graph) Metrics {
	m := Metrics{
		Nodes:  g.NodeCount(),
		Routes: g.RouteCount(),
	}

	m.AverageDegree, m.DegreeDefined = algorithms.AverageDegree(g)

	paths := algorithms.AveragePathLength(g)
	m.AverageShortestPath = paths.Average
	m.ReachablePairs = paths.ReachablePairs
	m.UnreachablePairs = paths.UnreachablePairs

	scc := algorithms.StronglyConnectedComponents(g)
	m.Components = len(scc.Components)
	m.LargestComponent = len(scc.Largest)
	m.Disconnected = m.Components != 1

	for _, f := range g.Facilities() {
		m.TotalCapacity += f.Capacity
		if f.Inventory != nil {
			m.TotalSafetyStock += SafetyStock(*f.Inventory)
		}
	}
	for _, d := range g.DemandPoints() {
		m.TotalDemand += d.DemandMean
	}

	return m.sanitize()
}

// SafetyStock returns z * demand_std * sqrt(lead_time).
func SafetyStock(p network.InventoryParams) float64 {
	if p.LeadTimeDays <= 0 {
		return 0
	}
	return ServiceLevelZ * p.DemandStd * math.Sqrt(p.LeadTimeDays)
}

func (m Metrics) sanitize() Metrics {
	m.AverageDegree = finite(m.AverageDegree)
	m.AverageShortestPath = finiteOr(m.AverageShortestPath, algorithms.UndefinedPathLength)
	m.TotalCapacity = finite(m.TotalCapacity)
	m.TotalDemand = finite(m.TotalDemand)
	m.TotalSafetyStock = finite(m.TotalSafetyStock)
	return m
}

// finite maps NaN and infinities to 0.
func finite(v float64) float64 {
	return finiteOr(v, 0)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, finite(v)))
}
